package intro

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func writeIntroFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Intro.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLookup_LazyLoad(t *testing.T) {
	path := writeIntroFile(t, `[
		{"id": 1292052, "introduction": "  希望让人自由。  "},
		{"id": "1291546", "introduction": "风华绝代。"},
		{"id": null, "introduction": "orphan"},
		{"introduction": "no id"}
	]`)
	c := New(path, zap.NewNop())

	if got := c.Lookup("1292052"); got != "希望让人自由。" {
		t.Errorf("Lookup(numeric id) = %q", got)
	}
	if got := c.Lookup(" 1291546 "); got != "风华绝代。" {
		t.Errorf("Lookup(string id) = %q", got)
	}
	if got := c.Lookup("0"); got != "" {
		t.Errorf("Lookup(unknown) = %q, want empty", got)
	}
	if got := c.Lookup(""); got != "" {
		t.Errorf("Lookup(empty) = %q, want empty", got)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestLookup_LoadsOnce(t *testing.T) {
	path := writeIntroFile(t, `[{"id": 1, "introduction": "first"}]`)
	c := New(path, zap.NewNop())

	if got := c.Lookup("1"); got != "first" {
		t.Fatalf("Lookup = %q", got)
	}

	if err := os.WriteFile(path, []byte(`[{"id": 1, "introduction": "second"}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := c.Lookup("1"); got != "first" {
		t.Errorf("expected cached value without refresh, got %q", got)
	}

	n, err := c.Refresh()
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if n != 1 {
		t.Errorf("Refresh count = %d, want 1", n)
	}
	if got := c.Lookup("1"); got != "second" {
		t.Errorf("expected refreshed value, got %q", got)
	}
}

func TestLookup_MissingFile(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "absent.json"), zap.NewNop())

	if got := c.Lookup("1292052"); got != "" {
		t.Errorf("expected empty introduction, got %q", got)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestLookup_MalformedFile(t *testing.T) {
	c := New(writeIntroFile(t, `{"not": "a list"`), zap.NewNop())

	if got := c.Lookup("1"); got != "" {
		t.Errorf("expected empty introduction, got %q", got)
	}
}

func TestRefresh_KeepsEntriesOnError(t *testing.T) {
	path := writeIntroFile(t, `[{"id": 7, "introduction": "kept"}]`)
	c := New(path, zap.NewNop())
	_ = c.Lookup("7")

	if err := os.WriteFile(path, []byte(`[broken`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Refresh(); err == nil {
		t.Fatal("expected refresh error")
	}
	if got := c.Lookup("7"); got != "kept" {
		t.Errorf("expected previous entry kept, got %q", got)
	}
}

func TestRefresh_BeforeFirstLookup(t *testing.T) {
	c := New(writeIntroFile(t, `[{"id": 3, "introduction": "x"}]`), zap.NewNop())

	if _, err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := c.Lookup("3"); got != "x" {
		t.Errorf("Lookup = %q", got)
	}
}

func TestLookup_Concurrent(t *testing.T) {
	c := New(writeIntroFile(t, `[{"id": 5, "introduction": "v"}]`), zap.NewNop())

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := c.Lookup("5"); got != "v" {
				t.Errorf("Lookup = %q", got)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = c.Refresh()
	}()
	wg.Wait()
}
