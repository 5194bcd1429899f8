package filestore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestPathsForChange(t *testing.T) {
	cases := []struct {
		rel  string
		want []string
	}{
		{"profile.json", []string{"/", "/about"}},
		{"blog/posts.json", []string{"/blog"}},
		{"blog/posts/hello-world.md", []string{"/blog", "/blog/hello-world"}},
		{"blog/posts/nested/x.md", nil},
		{"random.txt", nil},
		{"blog/posts/.md", nil},
	}
	for _, c := range cases {
		if got := pathsForChange(c.rel); !reflect.DeepEqual(got, c.want) {
			t.Errorf("pathsForChange(%q) = %v, want %v", c.rel, got, c.want)
		}
	}
}

type collectNotifier struct {
	mu    sync.Mutex
	paths [][]string
}

func (n *collectNotifier) Invalidate(paths []string) {
	n.mu.Lock()
	n.paths = append(n.paths, paths)
	n.mu.Unlock()
}

func (n *collectNotifier) snapshot() [][]string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([][]string, len(n.paths))
	copy(out, n.paths)
	return out
}

func TestWatchNotifiesOnExternalEdit(t *testing.T) {
	root := t.TempDir()
	n := &collectNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, root, logger, n)
	}()

	// Give the watcher a moment to register.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(root, "profile.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for {
		for _, paths := range n.snapshot() {
			if reflect.DeepEqual(paths, []string{"/", "/about"}) {
				cancel()
				<-done
				return
			}
		}
		select {
		case <-deadline:
			t.Fatalf("no invalidation observed; got %v", n.snapshot())
		case <-time.After(20 * time.Millisecond):
		}
	}
}
