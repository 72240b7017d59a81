package fs

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/mischief/pkg/core"
)

// DefaultWatchPattern matches every document and blob.
const DefaultWatchPattern = "**"

// Watch reports changes to the documents and blobs under the data directory
// whose relative path matches pattern. The channel is closed when ctx is done.
func (s *MetaStore) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = DefaultWatchPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("watch pattern %q: %w", pattern, core.ErrInvalidArgument)
	}

	events := make(chan core.Event, 100)
	w := newWatchWorker(s, pattern, events)
	w.ownsEvents = true
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

var _ core.Watchable = (*MetaStore)(nil)
