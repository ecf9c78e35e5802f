package search

import (
	"context"
	"log/slog"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T, limit int) *UserIndex {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewUserIndex(writer, slog.Default(), limit)
}

func Test_FindByPrefix_Returns_Sorted_Matches(t *testing.T) {
	req := require.New(t)
	index := newTestIndex(t, 0)

	req.NoError(index.Index("u-3", "samir"))
	req.NoError(index.Index("u-1", "sam"))
	req.NoError(index.Index("u-2", "samantha"))
	req.NoError(index.Index("u-4", "tom"))

	uids, err := index.FindByPrefix(context.Background(), "sam")
	req.NoError(err)
	// Username ascending: sam, samantha, samir
	req.Equal([]string{"u-1", "u-2", "u-3"}, uids)
}

func Test_FindByPrefix_No_Match(t *testing.T) {
	req := require.New(t)
	index := newTestIndex(t, 0)

	req.NoError(index.Index("u-1", "alice"))

	uids, err := index.FindByPrefix(context.Background(), "zzz")
	req.NoError(err)
	req.Empty(uids)
}

func Test_Index_Update_Replaces_Document(t *testing.T) {
	req := require.New(t)
	index := newTestIndex(t, 0)
	ctx := context.Background()

	req.NoError(index.Index("u-1", "alice"))
	req.NoError(index.Index("u-1", "wonderland"))

	uids, err := index.FindByPrefix(ctx, "alice")
	req.NoError(err)
	req.Empty(uids)

	uids, err = index.FindByPrefix(ctx, "wonder")
	req.NoError(err)
	req.Equal([]string{"u-1"}, uids)
}

func Test_FindByPrefix_Honors_Configured_Limit(t *testing.T) {
	req := require.New(t)
	index := newTestIndex(t, 2)

	req.NoError(index.Index("u-1", "sam"))
	req.NoError(index.Index("u-2", "samantha"))
	req.NoError(index.Index("u-3", "samir"))

	uids, err := index.FindByPrefix(context.Background(), "sam")
	req.NoError(err)
	// The two first usernames in sort order
	req.Equal([]string{"u-1", "u-2"}, uids)
}
