package usecase_test

import (
	"context"
	"sync"
	"testing"

	"github.com/runoshun/ghostwriter/internal/composer"
	"github.com/runoshun/ghostwriter/internal/domain"
	"github.com/runoshun/ghostwriter/internal/testutil"
	"github.com/runoshun/ghostwriter/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type composerFixture struct {
	uc      *usecase.RunComposer
	files   *testutil.MockFileStore
	history *testutil.MockSessionRepository
}

func newComposerFixture(tasks []domain.ComposerTask, cfg domain.ComposerConfig) *composerFixture {
	files := testutil.NewMockFileStore()
	history := testutil.NewMockSessionRepository()
	planner := composer.NewPlanner(&testutil.MockPlanClient{Tasks: tasks}, files, nil, nil)
	return &composerFixture{
		uc:      usecase.NewRunComposer(planner, files, history, cfg, nil),
		files:   files,
		history: history,
	}
}

func twoCreates() []domain.ComposerTask {
	return []domain.ComposerTask{
		{ID: "1", Kind: domain.TaskCreate, FilePath: "one.go", NewContent: testutil.Ptr("1")},
		{ID: "2", Kind: domain.TaskCreate, FilePath: "two.go", NewContent: testutil.Ptr("2")},
	}
}

func TestRunComposer_Execute_AutoExecute(t *testing.T) {
	// Setup
	f := newComposerFixture(twoCreates(), domain.ComposerConfig{AutoExecute: true, FailurePolicy: domain.PolicyContinue})
	var mu sync.Mutex
	var events []composer.EventType

	// Execute
	out, err := f.uc.Execute(context.Background(), usecase.RunComposerInput{
		Prompt: "add files",
		OnEvent: func(ev composer.Event) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, ev.Type)
		},
	})

	// Assert
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.False(t, out.Rejected)
	assert.Equal(t, domain.SessionCompleted, out.Session.Status)
	assert.Equal(t, []string{"create one.go", "create two.go"}, f.files.Operations())
	assert.Contains(t, f.history.Sessions, out.Session.ID)
	assert.Equal(t, composer.EventSessionPlanning, events[0])
	assert.Equal(t, composer.EventSessionCompleted, events[len(events)-1])
}

func TestRunComposer_Execute_Preview(t *testing.T) {
	tests := []struct {
		confirm      func(*domain.ComposerSession) bool
		name         string
		wantOps      []string
		wantStatus   domain.SessionStatus
		wantApplied  bool
		wantRejected bool
	}{
		{
			name:       "no decision leaves plan unapplied",
			wantOps:    []string{},
			wantStatus: domain.SessionExecuting,
		},
		{
			name:        "confirm applies",
			confirm:     func(*domain.ComposerSession) bool { return true },
			wantOps:     []string{"create one.go", "create two.go"},
			wantStatus:  domain.SessionCompleted,
			wantApplied: true,
		},
		{
			name:         "decline rejects",
			confirm:      func(*domain.ComposerSession) bool { return false },
			wantOps:      []string{},
			wantStatus:   domain.SessionExecuting,
			wantRejected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newComposerFixture(twoCreates(), domain.ComposerConfig{AutoExecute: true})

			out, err := f.uc.Execute(context.Background(), usecase.RunComposerInput{
				Prompt:  "add files",
				Preview: true,
				Confirm: tt.confirm,
			})

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, out.Session.Status)
			assert.Equal(t, tt.wantApplied, out.Applied)
			assert.Equal(t, tt.wantRejected, out.Rejected)
			assert.Equal(t, tt.wantOps, append([]string{}, f.files.Operations()...))
		})
	}
}

func TestRunComposer_Execute_PolicyOverride(t *testing.T) {
	// Setup
	f := newComposerFixture(twoCreates(), domain.ComposerConfig{AutoExecute: true, FailurePolicy: domain.PolicyContinue})
	f.files.Files["one.go"] = "exists"

	// Execute
	out, err := f.uc.Execute(context.Background(), usecase.RunComposerInput{
		Prompt: "add files",
		Policy: "fail-fast",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.SessionFailed, out.Session.Status)
	assert.Equal(t, domain.TaskFailed, out.Session.Tasks[0].Status)
	assert.Equal(t, domain.TaskPending, out.Session.Tasks[1].Status)
}

func TestRunComposer_Execute_Errors(t *testing.T) {
	t.Run("invalid policy", func(t *testing.T) {
		f := newComposerFixture(nil, domain.ComposerConfig{AutoExecute: true})

		_, err := f.uc.Execute(context.Background(), usecase.RunComposerInput{Prompt: "x", Policy: "yolo"})

		assert.ErrorIs(t, err, domain.ErrInvalidFailurePolicy)
	})

	t.Run("blank prompt", func(t *testing.T) {
		f := newComposerFixture(nil, domain.ComposerConfig{AutoExecute: true})

		_, err := f.uc.Execute(context.Background(), usecase.RunComposerInput{Prompt: "  "})

		assert.ErrorIs(t, err, domain.ErrBlankPrompt)
	})
}
