package blog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harlan/vitrin/internal/apperr"
	"github.com/harlan/vitrin/internal/filestore"
	"github.com/harlan/vitrin/internal/revalidate"
	"github.com/harlan/vitrin/internal/slug"
)

// indexResource is the whitelisted document holding the post metadata
// array.
const indexResource = "blog-index"

// ContentStore persists raw post bodies keyed by file name.
// *filestore.Dir satisfies it; tests substitute failing fakes to
// exercise the rollback path.
type ContentStore interface {
	Write(name string, data []byte) error
	Read(name string) ([]byte, error)
	Remove(name string) error
	Exists(name string) bool
}

// UploadStore removes per-post asset trees. *filestore.Dir satisfies it.
type UploadStore interface {
	RemoveTree(name string) error
}

// Repository implements blog CRUD over the index document and the
// per-post content files. Mutations hold a single lock so the index and
// the content directory can never be observed mid-transition by another
// writer.
type Repository struct {
	store    *filestore.Store
	content  ContentStore
	uploads  UploadStore
	notifier revalidate.Notifier
	logger   *slog.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewRepository creates a Repository. uploads may be nil when no upload
// directory is configured; notifier may be nil.
func NewRepository(store *filestore.Store, content ContentStore, uploads UploadStore, notifier revalidate.Notifier, logger *slog.Logger) *Repository {
	if notifier == nil {
		notifier = revalidate.Nop{}
	}
	return &Repository{
		store:    store,
		content:  content,
		uploads:  uploads,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func contentFile(s string) string { return s + ".md" }

// loadIndex returns the metadata array; a never-saved index is empty.
func (r *Repository) loadIndex() ([]Post, error) {
	doc, err := r.store.Load(indexResource)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var posts []Post
	if err := json.Unmarshal(doc, &posts); err != nil {
		return nil, apperr.Persistence("decode blog index", err)
	}
	return posts, nil
}

func (r *Repository) saveIndex(posts []Post) error {
	if posts == nil {
		posts = []Post{}
	}
	doc, err := json.Marshal(posts)
	if err != nil {
		return apperr.Persistence("encode blog index", err)
	}
	return r.store.Save(indexResource, doc)
}

func isNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}

// List returns every post, drafts included, newest first.
func (r *Repository) List() ([]Post, error) {
	posts, err := r.loadIndex()
	if err != nil {
		return nil, err
	}
	sortPosts(posts)
	return posts, nil
}

// ListPublished returns published posts, newest first, optionally
// filtered by tag (case-insensitive).
func (r *Repository) ListPublished(tag string) ([]Post, error) {
	posts, err := r.loadIndex()
	if err != nil {
		return nil, err
	}
	tag = strings.ToLower(strings.TrimSpace(tag))
	var out []Post
	for _, p := range posts {
		if !p.Published {
			continue
		}
		if tag != "" && !hasTag(p, tag) {
			continue
		}
		out = append(out, p)
	}
	sortPosts(out)
	return out, nil
}

// Get returns a post's metadata and content by slug.
func (r *Repository) Get(rawSlug string) (Post, string, error) {
	s, err := slug.Validate(rawSlug)
	if err != nil {
		return Post{}, "", err
	}
	posts, err := r.loadIndex()
	if err != nil {
		return Post{}, "", err
	}
	for _, p := range posts {
		if p.Slug == s {
			body, readErr := r.content.Read(contentFile(s))
			if readErr != nil {
				return Post{}, "", readErr
			}
			return p, string(body), nil
		}
	}
	return Post{}, "", fmt.Errorf("%w: post %s", apperr.ErrNotFound, s)
}

// Create validates the metadata, computes the reading time, and writes
// the index entry and the content file as one logical unit. If the
// content write fails after the index write committed, the index entry
// is rolled back so no dangling metadata survives.
func (r *Repository) Create(meta Post, content string) (Post, error) {
	raw := meta.Slug
	if raw == "" {
		raw = slug.Slugify(meta.Title)
	}
	s, err := slug.Validate(raw)
	if err != nil {
		return Post{}, err
	}
	meta.Slug = s
	if meta.PublishedDate == "" {
		meta.PublishedDate = r.now().UTC().Format(dateLayout)
	}
	if err := meta.Validate(); err != nil {
		return Post{}, err
	}
	meta.ReadingTime = EstimateReadingTime(content)

	r.mu.Lock()
	defer r.mu.Unlock()

	posts, err := r.loadIndex()
	if err != nil {
		return Post{}, err
	}
	for _, p := range posts {
		if p.Slug == s {
			return Post{}, fmt.Errorf("%w: %s", apperr.ErrDuplicateSlug, s)
		}
	}

	prev := make([]Post, len(posts))
	copy(prev, posts)

	if err := r.saveIndex(append(posts, meta)); err != nil {
		return Post{}, err
	}
	if err := r.content.Write(contentFile(s), []byte(content)); err != nil {
		// The index committed but the body did not: reconcile by
		// restoring the previous index rather than leaving an entry
		// with no content file.
		if rbErr := r.saveIndex(prev); rbErr != nil {
			r.logger.Error("index rollback failed after content write failure",
				slog.String("slug", s),
				slog.String("error", rbErr.Error()))
		}
		return Post{}, err
	}

	r.logger.Info("post created", slog.String("slug", s))
	r.notifier.Invalidate([]string{"/blog/" + s})
	return meta, nil
}

// Update rewrites both files for an existing slug, refreshing the
// reading time and the last-updated date.
func (r *Repository) Update(meta Post, content string) (Post, error) {
	s, err := slug.Validate(meta.Slug)
	if err != nil {
		return Post{}, err
	}
	meta.Slug = s

	r.mu.Lock()
	defer r.mu.Unlock()

	posts, err := r.loadIndex()
	if err != nil {
		return Post{}, err
	}
	pos := -1
	for i, p := range posts {
		if p.Slug == s {
			pos = i
			break
		}
	}
	if pos == -1 {
		return Post{}, fmt.Errorf("%w: post %s", apperr.ErrNotFound, s)
	}

	if meta.PublishedDate == "" {
		meta.PublishedDate = posts[pos].PublishedDate
	}
	meta.UpdatedDate = r.now().UTC().Format(dateLayout)
	if err := meta.Validate(); err != nil {
		return Post{}, err
	}
	meta.ReadingTime = EstimateReadingTime(content)

	prev := make([]Post, len(posts))
	copy(prev, posts)
	posts[pos] = meta

	if err := r.saveIndex(posts); err != nil {
		return Post{}, err
	}
	if err := r.content.Write(contentFile(s), []byte(content)); err != nil {
		if rbErr := r.saveIndex(prev); rbErr != nil {
			r.logger.Error("index rollback failed after content write failure",
				slog.String("slug", s),
				slog.String("error", rbErr.Error()))
		}
		return Post{}, err
	}

	r.logger.Info("post updated", slog.String("slug", s))
	r.notifier.Invalidate([]string{"/blog/" + s})
	return meta, nil
}

// Delete removes the index entry, the content file, and the post's
// upload tree. The slug is validated before any filesystem operation;
// the upload removal is keyed by the validated slug only, never a
// caller-supplied path.
func (r *Repository) Delete(rawSlug string) error {
	s, err := slug.Validate(rawSlug)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	posts, err := r.loadIndex()
	if err != nil {
		return err
	}
	pos := -1
	for i, p := range posts {
		if p.Slug == s {
			pos = i
			break
		}
	}
	if pos == -1 {
		return fmt.Errorf("%w: post %s", apperr.ErrNotFound, s)
	}

	if err := r.saveIndex(append(posts[:pos:pos], posts[pos+1:]...)); err != nil {
		return err
	}
	if err := r.content.Remove(contentFile(s)); err != nil {
		// Same reconciliation as Create/Update: restore the index entry
		// so the pairing holds and the delete can be retried.
		if rbErr := r.saveIndex(posts); rbErr != nil {
			r.logger.Error("index rollback failed after content removal failure",
				slog.String("slug", s),
				slog.String("error", rbErr.Error()))
		}
		return err
	}
	if r.uploads != nil {
		if err := r.uploads.RemoveTree(s); err != nil {
			// Orphaned uploads are an acceptable leak; the post itself
			// is gone.
			r.logger.Warn("upload tree removal failed",
				slog.String("slug", s),
				slog.String("error", err.Error()))
		}
	}

	r.logger.Info("post deleted", slog.String("slug", s))
	r.notifier.Invalidate([]string{"/blog/" + s})
	return nil
}

func sortPosts(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].PublishedDate != posts[j].PublishedDate {
			return posts[i].PublishedDate > posts[j].PublishedDate
		}
		return posts[i].Slug < posts[j].Slug
	})
}

func hasTag(p Post, tag string) bool {
	for _, t := range p.Tags {
		if strings.ToLower(strings.TrimSpace(t)) == tag {
			return true
		}
	}
	return false
}
