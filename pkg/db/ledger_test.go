package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRecordAndRecent(t *testing.T) {
	ledger, err := OpenLedger("")
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first := &Upload{ReportName: "a.txt", SizeBytes: 10, Blocks: 2, UploadedAt: base}
	second := &Upload{ReportName: "b.tsv", SizeBytes: 20, Blocks: 5, Discarded: 1, UploadedAt: base.Add(time.Minute)}
	require.NoError(t, ledger.Record(ctx, first))
	require.NoError(t, ledger.Record(ctx, second))
	assert.NotEmpty(t, first.ID)

	uploads, err := ledger.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, uploads, 2)

	assert.Equal(t, "b.tsv", uploads[0].ReportName)
	assert.Equal(t, 5, uploads[0].Blocks)
	assert.Equal(t, 1, uploads[0].Discarded)
	assert.True(t, second.UploadedAt.Equal(uploads[0].UploadedAt))
	assert.Equal(t, first.ID, uploads[1].ID)
}

func TestLedgerRecentLimit(t *testing.T) {
	ledger, err := OpenLedger("")
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, ledger.Record(ctx, &Upload{ReportName: "r.txt"}))
	}

	uploads, err := ledger.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, uploads, 2)
}

func TestLedgerOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blastview.db")

	ledger, err := OpenLedger(path)
	require.NoError(t, err)
	require.NoError(t, ledger.Record(context.Background(), &Upload{ReportName: "kept.txt", Blocks: 1}))
	require.NoError(t, ledger.Close())

	reopened, err := OpenLedger(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	uploads, err := reopened.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, "kept.txt", uploads[0].ReportName)
}
