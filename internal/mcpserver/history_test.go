package mcpserver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/finch-mcp/internal/finch"
	"github.com/soyeahso/finch-mcp/internal/logging"
	"github.com/soyeahso/finch-mcp/internal/store"
)

func TestCallerFrom(t *testing.T) {
	assert.Equal(t, "", CallerFrom(context.Background()))
	assert.Equal(t, "finch_image_ls", CallerFrom(withCaller(context.Background(), "finch_image_ls")))
}

func TestHistoryObserver_RedactsAndRecordsErrors(t *testing.T) {
	log := logging.New(nil, "silent")
	db, err := store.Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	history := store.NewHistoryStore(db)

	obs := HistoryObserver(history, log)
	ctx, cancel := context.WithCancel(withCaller(context.Background(), "finch_container_run"))
	cancel()

	obs(ctx, &finch.Output{
		Args:     []string{"container", "run", "-e", "password=hunter2", "alpine"},
		ExitCode: -1,
	}, errors.New("context canceled"))

	invs, err := history.Recent(context.Background(), 10, "finch_container_run")
	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, "password=REDACTED", invs[0].Args[3])
	assert.Equal(t, -1, invs[0].ExitCode)
	assert.Equal(t, "context canceled", invs[0].Error)
}
