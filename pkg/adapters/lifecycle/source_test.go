package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/mischief/pkg/adapters/lifecycle"
	"github.com/aretw0/mischief/pkg/core"
)

func TestSource(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	in := make(chan core.Event, 3)
	in <- core.Event{Type: core.EventCreate, Name: "blobs/a.blob"}
	in <- core.Event{Type: core.EventModify, Name: "shares.json"}
	in <- core.Event{Type: core.EventDelete, Name: "blobs/a.blob"}
	close(in)

	src := lifecycle.NewSource(in, core.EventModify, core.EventDelete)
	require.NoError(t, src.Start(ctx))

	var got []core.Event
	for e := range src.Events() {
		ce, ok := e.(core.Event)
		require.True(t, ok)
		got = append(got, ce)
	}

	require.Len(t, got, 2)
	assert.Equal(t, "shares.json", got[0].Name)
	assert.Equal(t, core.EventDelete, got[1].Type)
}
