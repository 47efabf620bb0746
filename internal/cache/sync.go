// Package cache maintains the local manifest directory: synchronizing it
// against the remote source-of-truth URL list and storing derived parsed
// collections next to the raw files.
package cache

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Downloader fetches one remote manifest file.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Synchronizer reconciles a local directory of manifest files against a
// remote URL list: missing files are downloaded, obsolete ones deleted.
type Synchronizer struct {
	dir        string
	downloader Downloader
	logger     *slog.Logger
}

// NewSynchronizer creates a synchronizer rooted at dir.
func NewSynchronizer(dir string, downloader Downloader, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{dir: dir, downloader: downloader, logger: logger}
}

// Sync brings the cache directory in line with urls for the given mission
// and returns the local paths, in original URL order, for every URL whose
// file exists afterwards. Per-file failures are logged and skipped; the
// returned list may be shorter than urls. Running Sync twice with an
// unchanged URL list performs no I/O on the second run.
func (s *Synchronizer) Sync(ctx context.Context, mission string, urls []string) ([]string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}

	expected := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		expected[manifestName(mission, u)] = struct{}{}
	}

	existing, err := s.existingManifests(mission)
	if err != nil {
		return nil, err
	}

	// Delete obsolete files; a deletion failure must not abort the run.
	for name := range existing {
		if _, ok := expected[name]; ok {
			continue
		}
		path := filepath.Join(s.dir, name)
		if err := os.Remove(path); err != nil {
			s.logger.Error("failed to delete obsolete manifest", "path", path, "error", err)
			continue
		}
		s.logger.Info("deleted obsolete manifest", "path", path)
	}

	// Download missing files in URL order.
	local := make([]string, 0, len(urls))
	for _, u := range urls {
		name := manifestName(mission, u)
		path := filepath.Join(s.dir, name)

		_, have := existing[name]
		if !have {
			if _, statErr := os.Stat(path); statErr == nil {
				have = true
			}
		}

		if !have {
			data, err := s.downloader.Download(ctx, u)
			if err != nil {
				s.logger.Error("failed downloading manifest", "url", u, "error", err)
				continue
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				s.logger.Error("failed writing manifest", "path", path, "error", err)
				continue
			}
			s.logger.Info("downloaded manifest", "url", u, "path", path)
		}

		local = append(local, path)
	}

	return local, nil
}

func (s *Synchronizer) existingManifests(mission string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{})
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, mission) && strings.HasSuffix(name, ".kml") {
			out[name] = struct{}{}
		}
	}
	return out, nil
}

// manifestName derives the mission-prefixed local file name for a URL.
func manifestName(mission, url string) string {
	base := url
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.Index(base, "?"); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return mission + "_" + base + ".kml"
}
