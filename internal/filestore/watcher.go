package filestore

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/harlan/vitrin/internal/revalidate"
)

// postsDir is where per-post content files live, relative to the data
// dir. Changes under it map to /blog and the post's own path.
const postsDir = "blog/posts"

// Watch runs an fsnotify watcher on the data directory until ctx is
// cancelled. Out-of-band edits (an operator editing a JSON file over
// SSH, a sync tool touching post bodies) trigger the same revalidation
// fan-out as admin writes, so downstream caches stay honest.
//
// Directories created at runtime are added to the watch list. The
// store's own temp files are ignored.
func Watch(ctx context.Context, root string, logger *slog.Logger, notifier revalidate.Notifier) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			abs := ev.Name
			base := filepath.Base(abs)
			if strings.HasPrefix(base, ".vitrin-tmp-") {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, abs); addErr != nil {
						logger.Warn("watcher: add dir failed",
							slog.String("path", abs),
							slog.String("error", addErr.Error()))
					}
					continue
				}
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			rel, relErr := filepath.Rel(root, abs)
			if relErr != nil {
				continue
			}
			paths := pathsForChange(rel)
			if len(paths) == 0 {
				continue
			}
			logger.Debug("watcher: change",
				slog.String("file", rel),
				slog.Any("paths", paths))
			notifier.Invalidate(paths)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// pathsForChange maps a changed file (relative to the data dir) to the
// view paths it makes stale. Unknown files map to nothing.
func pathsForChange(rel string) []string {
	rel = filepath.ToSlash(rel)
	if name, ok := ResourceForFile(rel); ok {
		return RevalidationPaths(name)
	}
	if strings.HasPrefix(rel, postsDir+"/") && strings.HasSuffix(rel, ".md") {
		slug := strings.TrimSuffix(strings.TrimPrefix(rel, postsDir+"/"), ".md")
		if slug == "" || strings.Contains(slug, "/") {
			return nil
		}
		return []string{"/blog", "/blog/" + slug}
	}
	return nil
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
