package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/jholhewres/ctxflow/pkg/ctxflow/execctx"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "contexts.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreSaveAndLoad(t *testing.T) {
	s := openTestStore(t)

	c := execctx.New("analyze",
		execctx.WithCategory("metadata"),
		execctx.WithConstraints(map[string]any{execctx.ConstraintMaxTokens: 1000}))
	c.AddInput("stored data", 0.8)

	if err := s.Save(c); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(c.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.ID != c.ID {
		t.Errorf("id = %q, want %q", got.ID, c.ID)
	}
	if got.Intent != "analyze" || got.Category != "metadata" {
		t.Errorf("intent/category = %q/%q", got.Intent, got.Category)
	}
	if len(got.Inputs) != 1 || got.Inputs[0].Data != "stored data" {
		t.Errorf("inputs = %+v", got.Inputs)
	}
	if !got.CreatedAt.Equal(c.CreatedAt) {
		t.Errorf("createdAt = %v, want %v", got.CreatedAt, c.CreatedAt)
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	s := openTestStore(t)

	c := execctx.New("analyze")
	if err := s.Save(c); err != nil {
		t.Fatalf("Save: %v", err)
	}

	c.AddInput("added later", 1.0)
	if err := s.Save(c); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := s.Load(c.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Inputs) != 1 {
		t.Errorf("inputs = %d, want the updated snapshot", len(got.Inputs))
	}

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("entries = %d, want 1 after overwrite", len(entries))
	}
}

func TestStoreLoadUnknownID(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Load("no-such-context")
	if !errors.Is(err, execctx.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestStoreList(t *testing.T) {
	s := openTestStore(t)

	a := execctx.New("analyze")
	a.AddInputTokens("aaaa", 1.0, 7)
	b := execctx.New("summarize")

	for _, c := range []*execctx.Context{a, b} {
		if err := s.Save(c); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	byID := map[string]Entry{}
	for _, e := range entries {
		byID[e.ID] = e
	}
	if e := byID[a.ID]; e.Intent != "analyze" || e.InputCount != 1 || e.Tokens != 7 {
		t.Errorf("entry for a = %+v", e)
	}
	if e := byID[b.ID]; e.Intent != "summarize" || e.InputCount != 0 {
		t.Errorf("entry for b = %+v", e)
	}
}

func TestStoreDelete(t *testing.T) {
	s := openTestStore(t)

	c := execctx.New("analyze")
	if err := s.Save(c); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := s.Delete(c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(c.ID); !errors.Is(err, execctx.ErrNotFound) {
		t.Errorf("context still loadable after delete: %v", err)
	}
	if err := s.Delete(c.ID); !errors.Is(err, execctx.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}
