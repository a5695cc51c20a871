// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/runoshun/ghostwriter/internal/domain"
)

// MockEditor is a test double for domain.Editor.
// Fields are ordered to minimize memory padding.
type MockEditor struct {
	InsertErr      error
	Sel            *domain.Range
	OnInsert       func() // Called after a successful insert, without locks held
	Content        string
	Path           string
	Overlay        string
	Calls          []string // Operation log: insert, cursor, overlay, clear
	OverlayRange   domain.Range
	Cursor         domain.Position
	mu             sync.Mutex
	OverlayVisible bool
}

// NewMockEditor creates an editor holding content with the cursor at pos.
func NewMockEditor(path, content string, pos domain.Position) *MockEditor {
	return &MockEditor{Path: path, Content: content, Cursor: pos}
}

// Text returns the document text.
func (m *MockEditor) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Content
}

// FilePath returns the document path.
func (m *MockEditor) FilePath() string {
	return m.Path
}

// CursorPosition returns the cursor.
func (m *MockEditor) CursorPosition() domain.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Cursor
}

// Selection returns the configured selection.
func (m *MockEditor) Selection() (domain.Range, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Sel == nil {
		return domain.Range{}, false
	}
	return *m.Sel, true
}

// InsertText splices text into the document.
func (m *MockEditor) InsertText(r domain.Range, text string) error {
	m.mu.Lock()
	if m.InsertErr != nil {
		m.mu.Unlock()
		return m.InsertErr
	}
	start := domain.OffsetOf(m.Content, r.Start)
	end := domain.OffsetOf(m.Content, r.End)
	m.Content = m.Content[:start] + text + m.Content[end:]
	m.Calls = append(m.Calls, "insert:"+text)
	hook := m.OnInsert
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

// SetCursorPosition moves the cursor.
func (m *MockEditor) SetCursorPosition(p domain.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cursor = p
	m.Calls = append(m.Calls, fmt.Sprintf("cursor:%d:%d", p.Line, p.Column))
}

// RenderOverlay records the ghost text.
func (m *MockEditor) RenderOverlay(text string, r domain.Range) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Overlay = text
	m.OverlayRange = r
	m.OverlayVisible = true
	m.Calls = append(m.Calls, "overlay:"+text)
}

// ClearOverlay removes the ghost text.
func (m *MockEditor) ClearOverlay() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Overlay = ""
	m.OverlayVisible = false
	m.Calls = append(m.Calls, "clear")
}

// MockSuggestionClient is a test double for domain.SuggestionClient.
// Fields are ordered to minimize memory padding.
type MockSuggestionClient struct {
	Response *domain.SuggestionResponse
	Err      error
	OnFetch  func(req domain.SuggestionRequest) // Called during the request, before it returns
	Requests []domain.SuggestionRequest
	mu       sync.Mutex
}

// FetchInlineSuggestion records the request and returns the configured reply.
func (m *MockSuggestionClient) FetchInlineSuggestion(_ context.Context, req domain.SuggestionRequest) (*domain.SuggestionResponse, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	hook := m.OnFetch
	resp, err := m.Response, m.Err
	m.mu.Unlock()

	if hook != nil {
		hook(req)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// RequestCount returns the number of requests received.
func (m *MockSuggestionClient) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// MockPlanClient is a test double for domain.PlanClient.
// Fields are ordered to minimize memory padding.
type MockPlanClient struct {
	Err      error
	Started  chan struct{} // Closed when the first request arrives (optional)
	Release  chan struct{} // When set, requests block until it is closed
	Tasks    []domain.ComposerTask
	Requests []domain.PlanRequest
	mu       sync.Mutex
}

// PlanChanges records the request and returns a copy of the configured tasks.
func (m *MockPlanClient) PlanChanges(ctx context.Context, req domain.PlanRequest) ([]domain.ComposerTask, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	first := len(m.Requests) == 1
	m.mu.Unlock()

	if first && m.Started != nil {
		close(m.Started)
	}
	if m.Release != nil {
		select {
		case <-m.Release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	tasks := make([]domain.ComposerTask, len(m.Tasks))
	for i, t := range m.Tasks {
		tasks[i] = t.Clone()
	}
	return tasks, nil
}

// MockFileStore is an in-memory domain.FileStore that records operation order.
// Fields are ordered to minimize memory padding.
type MockFileStore struct {
	Files     map[string]string
	Errs      map[string]error // Per-path error returned by any mutating operation
	OnOp      func(op string)  // Called inside each mutating operation
	Tree      []domain.FileNode
	TreeErr   error
	Ops       []string // "write a.go", "create b.go", "delete c.go"
	mu        sync.Mutex
	active    int
	MaxActive int // Highest number of concurrently running operations observed
}

// NewMockFileStore creates an empty store.
func NewMockFileStore() *MockFileStore {
	return &MockFileStore{
		Files: make(map[string]string),
		Errs:  make(map[string]error),
	}
}

func (m *MockFileStore) begin(op, path string) (func(), error) {
	m.mu.Lock()
	m.active++
	if m.active > m.MaxActive {
		m.MaxActive = m.active
	}
	m.Ops = append(m.Ops, op+" "+path)
	err := m.Errs[path]
	hook := m.OnOp
	m.mu.Unlock()

	if hook != nil {
		hook(op + " " + path)
	}
	return func() {
		m.mu.Lock()
		m.active--
		m.mu.Unlock()
	}, err
}

// ReadFile returns stored content.
func (m *MockFileStore) ReadFile(_ context.Context, path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.Files[path]
	if !ok {
		return "", domain.ErrFileNotFound
	}
	return content, nil
}

// WriteFile stores content.
func (m *MockFileStore) WriteFile(_ context.Context, path, content string) error {
	done, err := m.begin("write", path)
	defer done()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Files[path] = content
	return nil
}

// CreateFile stores content if the path is new.
func (m *MockFileStore) CreateFile(_ context.Context, path, content string) error {
	done, err := m.begin("create", path)
	defer done()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Files[path]; ok {
		return domain.ErrFileExists
	}
	m.Files[path] = content
	return nil
}

// DeleteFile removes a stored file.
func (m *MockFileStore) DeleteFile(_ context.Context, path string) error {
	done, err := m.begin("delete", path)
	defer done()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Files[path]; !ok {
		return domain.ErrFileNotFound
	}
	delete(m.Files, path)
	return nil
}

// ListProjectTree returns the configured tree, or a flat tree of stored files.
func (m *MockFileStore) ListProjectTree(_ context.Context) ([]domain.FileNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TreeErr != nil {
		return nil, m.TreeErr
	}
	if m.Tree != nil {
		return m.Tree, nil
	}
	paths := make([]string, 0, len(m.Files))
	for p := range m.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	nodes := make([]domain.FileNode, 0, len(paths))
	for _, p := range paths {
		nodes = append(nodes, domain.FileNode{Name: p, Path: p, Type: domain.FileTypeFile, Size: int64(len(m.Files[p]))})
	}
	return nodes, nil
}

// Operations returns a copy of the operation log.
func (m *MockFileStore) Operations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Ops...)
}

// MockSessionRepository is a test double for domain.SessionRepository.
// Fields are ordered to minimize memory padding.
type MockSessionRepository struct {
	Sessions map[string]*domain.ComposerSession
	SaveErr  error
	ListErr  error
	order    []string
	mu       sync.Mutex
}

// NewMockSessionRepository creates an empty repository.
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{Sessions: make(map[string]*domain.ComposerSession)}
}

// Save stores a copy of the session.
func (m *MockSessionRepository) Save(s *domain.ComposerSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if _, ok := m.Sessions[s.ID]; !ok {
		m.order = append(m.order, s.ID)
	}
	m.Sessions[s.ID] = s.Clone()
	return nil
}

// Get returns a stored session or nil.
func (m *MockSessionRepository) Get(id string) (*domain.ComposerSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Sessions[id].Clone(), nil
}

// List returns sessions newest first (reverse save order).
func (m *MockSessionRepository) List() ([]*domain.ComposerSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]*domain.ComposerSession, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		out = append(out, m.Sessions[m.order[i]].Clone())
	}
	return out, nil
}

// MockPromptRewriter is a test double for domain.PromptRewriter.
type MockPromptRewriter struct {
	Suffix string
}

// Rewrite appends the configured suffix.
func (m MockPromptRewriter) Rewrite(prompt string, _ []string) string {
	return prompt + m.Suffix
}

// Ptr returns a pointer to s.
func Ptr(s string) *string {
	return &s
}

// MockConfigLoader is a test double for domain.ConfigLoader.
type MockConfigLoader struct {
	Config  *domain.Config
	LoadErr error
}

// NewMockConfigLoader creates a new MockConfigLoader with default config.
func NewMockConfigLoader() *MockConfigLoader {
	return &MockConfigLoader{
		Config: domain.NewDefaultConfig(),
	}
}

// Ensure MockConfigLoader implements domain.ConfigLoader interface.
var _ domain.ConfigLoader = (*MockConfigLoader)(nil)

// Load returns the configured config or error.
func (m *MockConfigLoader) Load() (*domain.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Config, nil
}

// MockConfigManager is a test double for domain.ConfigManager.
// Fields are ordered to minimize memory padding.
type MockConfigManager struct {
	InitErr    error
	Repo       domain.ConfigInfo
	Global     domain.ConfigInfo
	InitCalled bool
	InitForce  bool
}

// NewMockConfigManager creates a new MockConfigManager.
func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{
		Repo:   domain.ConfigInfo{Path: "/test/.ghostwriter/config.toml"},
		Global: domain.ConfigInfo{Path: "/home/test/.config/ghostwriter/config.toml"},
	}
}

// Ensure MockConfigManager implements domain.ConfigManager interface.
var _ domain.ConfigManager = (*MockConfigManager)(nil)

// RepoConfigInfo returns the configured repo config info.
func (m *MockConfigManager) RepoConfigInfo() domain.ConfigInfo {
	return m.Repo
}

// GlobalConfigInfo returns the configured global config info.
func (m *MockConfigManager) GlobalConfigInfo() domain.ConfigInfo {
	return m.Global
}

// InitRepo records the call and returns the configured error.
func (m *MockConfigManager) InitRepo(force bool) error {
	m.InitCalled = true
	m.InitForce = force
	return m.InitErr
}
