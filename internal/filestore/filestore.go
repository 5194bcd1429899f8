// Package filestore persists the admin-editable documents as flat JSON
// files under a single data directory.
//
// Two guarantees matter here. First, only names on the hard-coded
// whitelist are ever mapped to a path, which removes arbitrary-file
// writes as a bug class no matter how a name was derived upstream.
// Second, writes are atomic from the reader's perspective: content goes
// to a temp file, is fsynced, and is renamed into place, so a concurrent
// reader sees either the old or the new document, never a torn one.
package filestore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/harlan/vitrin/internal/apperr"
	"github.com/harlan/vitrin/internal/revalidate"
)

// Document is a raw JSON document. The store does not interpret its
// shape beyond requiring valid JSON.
type Document = json.RawMessage

type resourceSpec struct {
	file  string   // path relative to the data dir
	paths []string // rendered views made stale by a write
}

// resources is the fixed whitelist of admin-writable documents. The
// check against it happens before any filesystem path is constructed.
var resources = map[string]resourceSpec{
	"profile":    {file: "profile.json", paths: []string{"/", "/about"}},
	"experience": {file: "experience.json", paths: []string{"/", "/experience"}},
	"skills":     {file: "skills.json", paths: []string{"/about"}},
	"settings":   {file: "settings.json", paths: []string{"/"}},
	"blog-index": {file: "blog/posts.json", paths: []string{"/blog"}},
}

// Whitelisted reports whether name is an admin-writable resource.
func Whitelisted(name string) bool {
	_, ok := resources[name]
	return ok
}

// RevalidationPaths returns the view paths associated with a resource,
// or nil for unknown names.
func RevalidationPaths(name string) []string {
	spec, ok := resources[name]
	if !ok {
		return nil
	}
	out := make([]string, len(spec.paths))
	copy(out, spec.paths)
	return out
}

// ResourceForFile maps a file path relative to the data dir back to its
// resource name. Used by the watcher to classify external edits.
func ResourceForFile(rel string) (string, bool) {
	rel = filepath.ToSlash(rel)
	for name, spec := range resources {
		if spec.file == rel {
			return name, true
		}
	}
	return "", false
}

// Store is the whitelisted document store. Writers to the same resource
// are serialized by a per-resource lock; two admin saves racing on one
// resource resolve to last-writer-wins at whole-document granularity,
// an accepted trade-off for a single-operator tool.
type Store struct {
	root     string
	notifier revalidate.Notifier
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a Store rooted at dir, which must already exist.
// notifier may be nil, in which case saves skip revalidation.
func NewStore(dir string, notifier revalidate.Notifier, logger *slog.Logger) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("filestore: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("filestore: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("filestore: root is not a directory: %s", abs)
	}
	if notifier == nil {
		notifier = revalidate.Nop{}
	}
	return &Store{
		root:     abs,
		notifier: notifier,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}, nil
}

// Root returns the absolute data directory.
func (s *Store) Root() string { return s.root }

func (s *Store) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// Load reads a whitelisted document. A resource that has never been
// saved yields apperr.ErrNotFound.
func (s *Store) Load(name string) (Document, error) {
	spec, ok := resources[name]
	if !ok {
		s.logger.Warn("load of non-whitelisted resource", slog.String("name", name))
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotWhitelisted, name)
	}
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(spec.file)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: resource %s", apperr.ErrNotFound, name)
		}
		return nil, apperr.Persistence("read "+name, err)
	}
	return Document(data), nil
}

// Save atomically replaces a whitelisted document and notifies the
// revalidator of the resource's stale view paths. The document is
// stored in canonical indented form, so saving identical content twice
// produces byte-identical files. On write failure the previously
// committed document is left intact.
func (s *Store) Save(name string, doc Document) error {
	spec, ok := resources[name]
	if !ok {
		s.logger.Warn("save to non-whitelisted resource", slog.String("name", name))
		return fmt.Errorf("%w: %s", apperr.ErrNotWhitelisted, name)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", "  "); err != nil {
		return apperr.Validation("data", "must be a valid JSON document")
	}
	buf.WriteByte('\n')

	l := s.lockFor(name)
	l.Lock()
	defer l.Unlock()

	abs := filepath.Join(s.root, filepath.FromSlash(spec.file))
	if err := writeFileAtomic(abs, buf.Bytes()); err != nil {
		s.logger.Error("save failed",
			slog.String("resource", name),
			slog.String("error", err.Error()))
		return apperr.Persistence("save "+name, err)
	}

	s.logger.Info("resource saved", slog.String("resource", name))
	s.notifier.Invalidate(RevalidationPaths(name))
	return nil
}

// writeFileAtomic writes data via temp file, fsync, and rename so no
// reader can observe a partial document.
func writeFileAtomic(abs string, data []byte) error {
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".vitrin-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	committed = true
	return nil
}
