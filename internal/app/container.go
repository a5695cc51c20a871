// Package app provides the dependency injection container for the application.
package app

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/runoshun/ghostwriter/internal/composer"
	"github.com/runoshun/ghostwriter/internal/domain"
	"github.com/runoshun/ghostwriter/internal/infra/backend"
	"github.com/runoshun/ghostwriter/internal/infra/config"
	"github.com/runoshun/ghostwriter/internal/infra/filestore"
	"github.com/runoshun/ghostwriter/internal/infra/git"
	"github.com/runoshun/ghostwriter/internal/infra/jsonstore"
	"github.com/runoshun/ghostwriter/internal/infra/logging"
	"github.com/runoshun/ghostwriter/internal/infra/rules"
	"github.com/runoshun/ghostwriter/internal/infra/textbuf"
	"github.com/runoshun/ghostwriter/internal/usecase"
)

// Config holds the application paths.
type Config struct {
	Root         string // Workspace root (repository top level, or the working directory)
	StateDir     string // Path to .ghostwriter directory
	StorePath    string // Path to sessions.json
	IsRepository bool   // Workspace is inside a git repository
}

// newConfig creates a new Config from the git client.
func newConfig(gitClient *git.Client) Config {
	root := gitClient.Root()
	return Config{
		Root:         root,
		StateDir:     domain.RepoDir(root),
		StorePath:    domain.SessionsStorePath(root),
		IsRepository: gitClient.IsRepository(),
	}
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	Files         domain.FileStore
	Suggestions   domain.SuggestionClient
	Plans         domain.PlanClient
	History       domain.SessionRepository
	Rewriter      domain.PromptRewriter
	ConfigLoader  domain.ConfigLoader
	ConfigManager domain.ConfigManager

	// ConfigErr is the configuration or rules load failure, if any.
	// Commands that depend on configuration report it; config commands do not.
	ConfigErr error

	// Pointer fields
	AppConfig *domain.Config
	Logger    *slog.Logger
	logFile   *logging.Logger

	// Configuration
	Config Config
}

// New creates a new Container for the workspace containing dir.
func New(dir string) (*Container, error) {
	gitClient, err := git.Detect(dir)
	if err != nil {
		return nil, err
	}
	cfg := newConfig(gitClient)

	configLoader := config.NewLoader(cfg.StateDir)
	configManager := config.NewManager(cfg.StateDir)

	appConfig, configErr := configLoader.Load()
	if configErr != nil {
		appConfig = domain.NewDefaultConfig()
	}

	logFile := logging.New(cfg.Root, logging.ParseLevel(appConfig.Log.Level))
	logger := logFile.Slog()

	var ignore filestore.Ignorer
	if appConfig.Workspace.RespectGitignore {
		matcher, err := gitClient.IgnoreMatcher()
		if err != nil {
			logger.Warn("gitignore not applied", "category", "app", "error", err)
		} else {
			ignore = matcher
		}
	}

	var rewriter domain.PromptRewriter = &rules.Rules{}
	if configErr == nil {
		loaded, err := rules.Load(resolvePath(cfg.Root, appConfig.Workspace.RulesFile))
		if err != nil {
			configErr = fmt.Errorf("load rules: %w", err)
		} else {
			rewriter = loaded
		}
	}

	client := backend.New(appConfig.Backend.URL, appConfig.Backend.Timeout(), logger)

	return &Container{
		Files:         filestore.New(cfg.Root, ignore, logger),
		Suggestions:   client,
		Plans:         client,
		History:       jsonstore.New(cfg.StorePath, appConfig.Composer.HistoryLimit),
		Rewriter:      rewriter,
		ConfigLoader:  configLoader,
		ConfigManager: configManager,
		ConfigErr:     configErr,
		AppConfig:     appConfig,
		Logger:        logger,
		logFile:       logFile,
		Config:        cfg,
	}, nil
}

// Deps holds custom dependencies for NewWithDeps.
type Deps struct {
	Files         domain.FileStore
	Suggestions   domain.SuggestionClient
	Plans         domain.PlanClient
	History       domain.SessionRepository
	Rewriter      domain.PromptRewriter
	ConfigLoader  domain.ConfigLoader
	ConfigManager domain.ConfigManager
	AppConfig     *domain.Config
	Logger        *slog.Logger
}

// NewWithDeps creates a new Container with custom dependencies for testing.
func NewWithDeps(cfg Config, deps Deps) *Container {
	if deps.AppConfig == nil {
		deps.AppConfig = domain.NewDefaultConfig()
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Container{
		Files:         deps.Files,
		Suggestions:   deps.Suggestions,
		Plans:         deps.Plans,
		History:       deps.History,
		Rewriter:      deps.Rewriter,
		ConfigLoader:  deps.ConfigLoader,
		ConfigManager: deps.ConfigManager,
		AppConfig:     deps.AppConfig,
		Logger:        deps.Logger,
		Config:        cfg,
	}
}

// Close releases the log file.
func (c *Container) Close() error {
	if c.logFile == nil {
		return nil
	}
	return c.logFile.Close()
}

func resolvePath(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// UseCase factory methods

// Planner returns the task planner adapter.
func (c *Container) Planner() *composer.Planner {
	return composer.NewPlanner(c.Plans, c.Files, c.Rewriter, c.Logger)
}

// RunComposerUseCase returns a new RunComposer use case.
func (c *Container) RunComposerUseCase() *usecase.RunComposer {
	return usecase.NewRunComposer(c.Planner(), c.Files, c.History, c.AppConfig.Composer, c.Logger)
}

// SuggestOnceUseCase returns a new SuggestOnce use case backed by an in-memory buffer.
func (c *Container) SuggestOnceUseCase() *usecase.SuggestOnce {
	open := func(path, text string) usecase.Document { return textbuf.New(path, text) }
	return usecase.NewSuggestOnce(c.Suggestions, c.Files, open, c.AppConfig.Suggest, c.Logger)
}

// ShowTreeUseCase returns a new ShowTree use case.
func (c *Container) ShowTreeUseCase() *usecase.ShowTree {
	return usecase.NewShowTree(c.Files)
}

// ListSessionsUseCase returns a new ListSessions use case.
func (c *Container) ListSessionsUseCase() *usecase.ListSessions {
	return usecase.NewListSessions(c.History)
}

// ShowSessionUseCase returns a new ShowSession use case.
func (c *Container) ShowSessionUseCase() *usecase.ShowSession {
	return usecase.NewShowSession(c.History)
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager)
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.ConfigManager, c.ConfigLoader)
}
