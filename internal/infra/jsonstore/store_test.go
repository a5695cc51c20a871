package jsonstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/runoshun/ghostwriter/internal/domain"
)

func newTestStore(t *testing.T, limit int) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), ".ghostwriter", "sessions.json"), limit)
}

func session(id string) *domain.ComposerSession {
	content := "package main\n"
	return &domain.ComposerSession{
		ID:        id,
		Prompt:    "prompt " + id,
		Status:    domain.SessionCompleted,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Tasks: []domain.ComposerTask{
			{ID: id + "-t1", Kind: domain.TaskCreate, FilePath: "main.go", NewContent: &content, Status: domain.TaskCompleted},
		},
	}
}

func TestStore_EmptyHistory(t *testing.T) {
	store := newTestStore(t, 10)

	sessions, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("List() = %d sessions, want 0", len(sessions))
	}

	got, err := store.Get("missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %v, want nil", got)
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t, 10)

	if err := store.Save(session("a")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get("a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("Get() returned nil")
	}
	if got.Prompt != "prompt a" {
		t.Errorf("Prompt = %q, want %q", got.Prompt, "prompt a")
	}
	if len(got.Tasks) != 1 || got.Tasks[0].NewContent == nil || *got.Tasks[0].NewContent != "package main\n" {
		t.Errorf("Tasks not round-tripped: %+v", got.Tasks)
	}
	if !got.CreatedAt.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", got.CreatedAt)
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := newTestStore(t, 10)
	for _, id := range []string{"a", "b", "c"} {
		if err := store.Save(session(id)); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}
	// Re-saving moves a session to the front
	if err := store.Save(session("a")); err != nil {
		t.Fatalf("Save(a) error = %v", err)
	}

	sessions, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"a", "c", "b"}
	if len(sessions) != len(want) {
		t.Fatalf("List() = %d sessions, want %d", len(sessions), len(want))
	}
	for i, id := range want {
		if sessions[i].ID != id {
			t.Errorf("sessions[%d].ID = %q, want %q", i, sessions[i].ID, id)
		}
	}
}

func TestStore_TrimsToLimit(t *testing.T) {
	store := newTestStore(t, 2)
	for _, id := range []string{"a", "b", "c"} {
		if err := store.Save(session(id)); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}

	sessions, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "c" || sessions[1].ID != "b" {
		t.Errorf("List() = %v, want [c b]", ids(sessions))
	}
	if got, _ := store.Get("a"); got != nil {
		t.Error("oldest session should be trimmed")
	}
}

func TestStore_CorruptFile(t *testing.T) {
	store := newTestStore(t, 10)
	if err := os.MkdirAll(filepath.Dir(store.path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := store.List(); err == nil {
		t.Error("List() expected parse error")
	}
}

func ids(sessions []*domain.ComposerSession) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.ID
	}
	return out
}
