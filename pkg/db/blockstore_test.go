package db

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumyai/blastview/pkg/model"
)

const sampleReport = "# BLASTN 2.14.0+\n" +
	"# Query: Q1\n" +
	"# Database: nt\n" +
	"Q1\tS1\t95.0\t1500\t1\t0\t1\t1500\t1\t1500\t1e-50\t900\n" +
	"Q1\tS2\t80.0\t1500\t1\t0\t1\t1500\t1\t1500\t1e-50\t700\n" +
	"# Query: contig/7\n" +
	"contig/7\tS3\t99.0\t1500\t0\t0\t1\t1500\t1\t1500\t0.0\t1400\n" +
	"# Query: Q3\n" +
	"# 0 hits found\n"

func newTestStore(t *testing.T) (*BlockStore, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	store, err := NewBlockStore(fs, "/data")
	require.NoError(t, err)
	return store, fs
}

func TestSaveReport(t *testing.T) {
	store, fs := newTestStore(t)

	result, err := store.SaveReport("run1.txt", strings.NewReader(sampleReport))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Blocks)
	assert.Equal(t, 1, result.Discarded)

	raw, err := afero.ReadFile(fs, "/data/uploaded/run1.txt")
	require.NoError(t, err)
	assert.Equal(t, sampleReport, string(raw))

	names, err := store.ListBlocks()
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1.txt", "Q3.txt", "contig_7.txt"}, names)

	lines, err := store.ReadBlock("contig_7.txt")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "# Query: contig/7\n", lines[0])
}

func TestSaveReportStripsDirectories(t *testing.T) {
	store, fs := newTestStore(t)

	_, err := store.SaveReport("../../etc/report.tsv", strings.NewReader(sampleReport))
	require.NoError(t, err)

	exists, err := afero.Exists(fs, "/data/uploaded/report.tsv")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = store.SaveReport("..", strings.NewReader(sampleReport))
	assert.Error(t, err)
}

func TestSaveReportFromStoredCopy(t *testing.T) {
	store, fs := newTestStore(t)
	require.NoError(t, afero.WriteFile(fs, "/data/uploaded/run1.txt", []byte(sampleReport), 0o644))

	f, err := fs.Open("/data/uploaded/run1.txt")
	require.NoError(t, err)
	defer f.Close()

	result, err := store.SaveReport("run1.txt", f)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Blocks)

	raw, err := afero.ReadFile(fs, "/data/uploaded/run1.txt")
	require.NoError(t, err)
	assert.Equal(t, sampleReport, string(raw))
}

func TestSaveReportFailedCopyKeepsPrevious(t *testing.T) {
	store, fs := newTestStore(t)
	_, err := store.SaveReport("run1.txt", strings.NewReader(sampleReport))
	require.NoError(t, err)

	broken := io.MultiReader(strings.NewReader("# Query: X\n"), iotest.ErrReader(errors.New("connection reset")))
	_, err = store.SaveReport("run1.txt", broken)
	require.Error(t, err)

	raw, err := afero.ReadFile(fs, "/data/uploaded/run1.txt")
	require.NoError(t, err)
	assert.Equal(t, sampleReport, string(raw))

	leftover, err := afero.Exists(fs, "/data/uploaded/run1.txt.part")
	require.NoError(t, err)
	assert.False(t, leftover)
}

func TestIsStoredReport(t *testing.T) {
	store, _ := newTestStore(t)

	tests := []struct {
		path string
		want bool
	}{
		{path: "/data/uploaded/run1.txt", want: true},
		{path: "/data/./uploaded/run1.txt", want: true},
		{path: "/in/run1.txt", want: false},
		{path: "/data/uploaded/sub/run1.txt", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, store.IsStoredReport(tt.path))
		})
	}
}

func TestReadBlockNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	for _, name := range []string{"missing.txt", "../uploaded/run1.txt", "Q1"} {
		_, err := store.ReadBlock(name)
		assert.ErrorIs(t, err, ErrBlockNotFound, name)
	}
}

func TestListBlocksIgnoresOtherFiles(t *testing.T) {
	store, fs := newTestStore(t)
	require.NoError(t, store.WriteBlock("A", []string{"# Query: A\n"}))
	require.NoError(t, afero.WriteFile(fs, "/data/split_queries/notes.md", []byte("x"), 0o644))
	require.NoError(t, fs.MkdirAll("/data/split_queries/sub.txt", 0o755))

	names, err := store.ListBlocks()
	require.NoError(t, err)
	assert.Equal(t, []string{"A.txt"}, names)
}

func TestStoreAggregate(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.SaveReport("run1.txt", strings.NewReader(sampleReport))
	require.NoError(t, err)

	p := model.DefaultParams()
	p.AlignmentLength = 0

	result, err := store.Aggregate(p)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalHits)
	assert.Equal(t, []string{"Q3.txt"}, result.SkippedNames())
}

func TestStoreAggregateEmpty(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Aggregate(model.DefaultParams())
	assert.ErrorIs(t, err, model.ErrNoBlocks)
}

// Aggregations running next to uploads always see whole splits.
func TestStoreConcurrentSplitAndAggregate(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.SaveReport("run0.txt", strings.NewReader(sampleReport))
	require.NoError(t, err)

	p := model.DefaultParams()
	p.AlignmentLength = 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := store.SaveReport(fmt.Sprintf("run%d.txt", i), strings.NewReader(sampleReport))
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			result, err := store.Aggregate(p)
			if assert.NoError(t, err) {
				assert.Equal(t, 2, result.TotalHits)
			}
		}()
	}
	wg.Wait()
}
