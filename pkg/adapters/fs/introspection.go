package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// MetaStoreState exposes internal state for observability.
type MetaStoreState struct {
	Path          string     `json:"path"`
	ReadOnly      bool       `json:"read_only"`
	Documents     []string   `json:"documents"`
	Commits       int64      `json:"commits"`
	LastCommit    *time.Time `json:"last_commit,omitempty"`
	WatcherActive bool       `json:"watcher_active"`
}

// State implements introspection.Introspectable.
func (s *MetaStore) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return MetaStoreState{
		Path:          s.Path,
		ReadOnly:      s.config.ReadOnly,
		Documents:     []string{PrincipalsFile, NotesFile, SharesFile},
		Commits:       s.commits,
		LastCommit:    s.lastCommit,
		WatcherActive: s.watcherActive,
	}
}

// ComponentType implements introspection.Component.
func (s *MetaStore) ComponentType() string {
	return "metadata_store"
}

func (s *MetaStore) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcherActive = active
}

func (s *MetaStore) recordCommit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.commits++
	s.lastCommit = &now
}

// ContentStoreState exposes internal state for observability.
type ContentStoreState struct {
	Path     string `json:"path"`
	ReadOnly bool   `json:"read_only"`
	Puts     int64  `json:"puts"`
	Deletes  int64  `json:"deletes"`
}

// State implements introspection.Introspectable.
func (c *ContentStore) State() any {
	return ContentStoreState{
		Path:     c.Path,
		ReadOnly: c.config.ReadOnly,
		Puts:     c.puts.Load(),
		Deletes:  c.deletes.Load(),
	}
}

// ComponentType implements introspection.Component.
func (c *ContentStore) ComponentType() string {
	return "content_store"
}

var _ introspection.Introspectable = (*MetaStore)(nil)
var _ introspection.Component = (*MetaStore)(nil)
var _ introspection.Introspectable = (*ContentStore)(nil)
var _ introspection.Component = (*ContentStore)(nil)
