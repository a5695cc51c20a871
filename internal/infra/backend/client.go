// Package backend implements the HTTP client for the AI backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/runoshun/ghostwriter/internal/domain"
)

// Ensure Client implements the backend ports.
var (
	_ domain.SuggestionClient = (*Client)(nil)
	_ domain.PlanClient       = (*Client)(nil)
)

// Endpoint paths.
const (
	completionsPath = "/api/completions"
	planPath        = "/api/composer/plan"
)

// maxErrorBody bounds how much of a failed response body is read.
const maxErrorBody = 64 << 10

// Client talks to the AI backend over HTTP.
type Client struct {
	http    *http.Client
	logger  *slog.Logger
	baseURL string
}

// New creates a client for the backend at baseURL. A zero timeout means none.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("category", "backend"),
	}
}

type wirePosition struct {
	Line      int `json:"line"`      // 1-based
	Character int `json:"character"` // 0-based
}

type completionContext struct {
	BeforeCursor string `json:"before_cursor"`
	AfterCursor  string `json:"after_cursor"`
	FileName     string `json:"file_name"`
}

type completionRequest struct {
	Code           string       `json:"code"`
	Language       string       `json:"language"`
	Context        string       `json:"context"`
	Position       wirePosition `json:"position"`
	MaxCompletions int          `json:"max_completions"`
}

type completion struct {
	Score *float64 `json:"score"`
	Text  string   `json:"text"`
	Kind  string   `json:"kind"`
}

type completionResponse struct {
	Completions    []completion `json:"completions"`
	ProcessingTime float64      `json:"processing_time"`
}

// FetchInlineSuggestion asks for a single completion at the request position.
// Returns nil when the backend offers none.
func (c *Client) FetchInlineSuggestion(ctx context.Context, req domain.SuggestionRequest) (*domain.SuggestionResponse, error) {
	extra, err := json.Marshal(completionContext{
		BeforeCursor: req.BeforeCursor,
		AfterCursor:  req.AfterCursor,
		FileName:     req.FileName,
	})
	if err != nil {
		return nil, fmt.Errorf("encode completion context: %w", err)
	}

	body := completionRequest{
		Code:     req.Code,
		Language: req.Language,
		Position: wirePosition{
			Line:      req.Position.Line + 1,
			Character: req.Position.Column,
		},
		Context:        string(extra),
		MaxCompletions: 1,
	}

	var resp completionResponse
	if err := c.post(ctx, completionsPath, body, &resp); err != nil {
		return nil, err
	}
	c.logger.Debug("completion received", "count", len(resp.Completions), "processing_ms", resp.ProcessingTime)

	if len(resp.Completions) == 0 {
		return nil, nil
	}
	first := resp.Completions[0]
	out := &domain.SuggestionResponse{Text: first.Text}
	if first.Score != nil {
		out.Confidence = *first.Score
	}
	return out, nil
}

type planRequest struct {
	Prompt        string            `json:"prompt"`
	SelectedFiles []string          `json:"selected_files"`
	ProjectTree   []domain.FileNode `json:"project_tree"`
}

type planTask struct {
	OriginalContent *string `json:"original_content"`
	NewContent      *string `json:"new_content"`
	ID              string  `json:"id"`
	Type            string  `json:"type"`
	FilePath        string  `json:"file_path"`
	Description     string  `json:"description"`
	Changes         string  `json:"changes"`
}

type planResponse struct {
	Tasks []planTask `json:"tasks"`
}

// PlanChanges asks the backend to plan the prompt into ordered file-level tasks.
func (c *Client) PlanChanges(ctx context.Context, req domain.PlanRequest) ([]domain.ComposerTask, error) {
	body := planRequest{
		Prompt:        req.Prompt,
		SelectedFiles: req.SelectedFiles,
		ProjectTree:   req.Project,
	}
	if body.SelectedFiles == nil {
		body.SelectedFiles = []string{}
	}
	if body.ProjectTree == nil {
		body.ProjectTree = []domain.FileNode{}
	}

	var resp planResponse
	if err := c.post(ctx, planPath, body, &resp); err != nil {
		return nil, err
	}

	tasks := make([]domain.ComposerTask, 0, len(resp.Tasks))
	for _, t := range resp.Tasks {
		tasks = append(tasks, domain.ComposerTask{
			ID:              t.ID,
			Kind:            domain.TaskKind(t.Type),
			FilePath:        t.FilePath,
			Description:     t.Description,
			Changes:         t.Changes,
			OriginalContent: t.OriginalContent,
			NewContent:      t.NewContent,
		})
	}
	c.logger.Debug("plan received", "tasks", len(tasks))
	return tasks, nil
}

type errorResponse struct {
	Detail any `json:"detail"`
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: POST %s: %w", domain.ErrRequestFailed, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(path, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", domain.ErrRequestFailed, path, err)
	}
	return nil
}

func statusError(path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var e errorResponse
	if json.Unmarshal(raw, &e) == nil && e.Detail != nil {
		detail, ok := e.Detail.(string)
		if !ok {
			b, _ := json.Marshal(e.Detail)
			detail = string(b)
		}
		return fmt.Errorf("%w: POST %s: %s: %s", domain.ErrRequestFailed, path, resp.Status, detail)
	}
	return fmt.Errorf("%w: POST %s: %s", domain.ErrRequestFailed, path, resp.Status)
}
