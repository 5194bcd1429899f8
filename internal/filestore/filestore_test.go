package filestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/harlan/vitrin/internal/apperr"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls [][]string
}

func (n *recordingNotifier) Invalidate(paths []string) {
	n.mu.Lock()
	n.calls = append(n.calls, paths)
	n.mu.Unlock()
}

func testStore(t *testing.T) (*Store, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewStore(t.TempDir(), n, logger)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s, n
}

func TestSaveAndLoad(t *testing.T) {
	s, _ := testStore(t)
	doc := Document(`{"name":"Ada","title":"Engineer"}`)
	if err := s.Save("profile", doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load("profile")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var decoded map[string]string
	if err := json.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("stored document is not valid JSON: %v", err)
	}
	if decoded["name"] != "Ada" {
		t.Errorf("name = %q", decoded["name"])
	}
}

func TestSaveRejectsNonWhitelisted(t *testing.T) {
	s, n := testStore(t)
	for _, name := range []string{"", "secrets", "../profile", "profile.json", "PROFILE"} {
		err := s.Save(name, Document(`{}`))
		if !errors.Is(err, apperr.ErrNotWhitelisted) {
			t.Errorf("Save(%q) err = %v, want ErrNotWhitelisted", name, err)
		}
	}
	if len(n.calls) != 0 {
		t.Error("rejected saves must not trigger revalidation")
	}
	// Nothing may have touched the filesystem.
	entries, _ := os.ReadDir(s.Root())
	if len(entries) != 0 {
		t.Errorf("data dir should be empty, has %d entries", len(entries))
	}
}

func TestLoadRejectsNonWhitelisted(t *testing.T) {
	s, _ := testStore(t)
	if _, err := s.Load("../../etc/passwd"); !errors.Is(err, apperr.ErrNotWhitelisted) {
		t.Errorf("err = %v, want ErrNotWhitelisted", err)
	}
}

func TestLoadMissingResource(t *testing.T) {
	s, _ := testStore(t)
	if _, err := s.Load("settings"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveRejectsInvalidJSON(t *testing.T) {
	s, _ := testStore(t)
	if err := s.Save("profile", Document(`{"name":"Ada"}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	before, _ := s.Load("profile")

	var verr *apperr.ValidationError
	err := s.Save("profile", Document(`{not json`))
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	after, _ := s.Load("profile")
	if !bytes.Equal(before, after) {
		t.Error("failed save must leave the committed document intact")
	}
}

func TestSaveIsIdempotentBytewise(t *testing.T) {
	s, _ := testStore(t)
	doc := Document(`{"theme": "dark",   "perPage": 10}`)
	if err := s.Save("settings", doc); err != nil {
		t.Fatalf("first save: %v", err)
	}
	first, _ := os.ReadFile(filepath.Join(s.Root(), "settings.json"))
	if err := s.Save("settings", doc); err != nil {
		t.Fatalf("second save: %v", err)
	}
	second, _ := os.ReadFile(filepath.Join(s.Root(), "settings.json"))
	if !bytes.Equal(first, second) {
		t.Error("saving the same document twice must be byte-identical")
	}
}

func TestSaveTriggersRevalidation(t *testing.T) {
	s, n := testStore(t)
	if err := s.Save("experience", Document(`[]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(n.calls) != 1 {
		t.Fatalf("notifier calls = %d, want 1", len(n.calls))
	}
	got := strings.Join(n.calls[0], ",")
	if got != "/,/experience" {
		t.Errorf("paths = %q, want /,/experience", got)
	}
}

func TestSaveCreatesNestedResourceDir(t *testing.T) {
	s, _ := testStore(t)
	if err := s.Save("blog-index", Document(`[]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "blog", "posts.json")); err != nil {
		t.Errorf("blog/posts.json not created: %v", err)
	}
}

func TestConcurrentReadersNeverSeeTornWrites(t *testing.T) {
	s, _ := testStore(t)
	docA := Document(`{"v":"` + strings.Repeat("a", 4096) + `"}`)
	docB := Document(`{"v":"` + strings.Repeat("b", 4096) + `"}`)
	if err := s.Save("profile", docA); err != nil {
		t.Fatalf("seed save: %v", err)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			doc := docA
			if i%2 == 1 {
				doc = docB
			}
			if err := s.Save("profile", doc); err != nil {
				t.Errorf("Save: %v", err)
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		got, err := s.Load("profile")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		var decoded struct{ V string }
		if err := json.Unmarshal(got, &decoded); err != nil {
			t.Fatalf("read %d observed torn document: %v", i, err)
		}
		if decoded.V != strings.Repeat("a", 4096) && decoded.V != strings.Repeat("b", 4096) {
			t.Fatalf("read %d observed mixed document", i)
		}
	}
	close(stop)
	wg.Wait()
}

func TestNoLeftoverTempFiles(t *testing.T) {
	s, _ := testStore(t)
	_ = s.Save("skills", Document(`["go"]`))
	_ = s.Save("skills", Document(`["go","sql"]`))
	matches, _ := filepath.Glob(filepath.Join(s.Root(), ".vitrin-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestResourceForFile(t *testing.T) {
	name, ok := ResourceForFile("blog/posts.json")
	if !ok || name != "blog-index" {
		t.Errorf("ResourceForFile(blog/posts.json) = %q, %v", name, ok)
	}
	if _, ok := ResourceForFile("blog/posts/hello.md"); ok {
		t.Error("post content is not a named resource")
	}
}

func TestNewStoreRequiresExistingDir(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := NewStore(filepath.Join(t.TempDir(), "missing"), nil, logger); err == nil {
		t.Error("expected error for non-existent root")
	}
}
