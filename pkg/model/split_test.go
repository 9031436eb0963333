package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeQueryID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "contig/7", want: "contig_7"},
		{in: "  NM_001.1  ", want: "NM_001.1"},
		{in: `a\b/c`, want: "a_b_c"},
		{in: "", want: UnnamedBlock},
		{in: "   ", want: UnnamedBlock},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeQueryID(tt.in))
		})
	}
}

func TestQueryID(t *testing.T) {
	id, ok := QueryID("# Query: lcl|contig/7 some description\n")
	require.True(t, ok)
	assert.Equal(t, "lcl|contig/7 some description", id)

	// Later colons belong to the identifier.
	id, ok = QueryID("# Query: gi|123:45-90\n")
	require.True(t, ok)
	assert.Equal(t, "gi|123:45-90", id)

	_, ok = QueryID("# Database: nt\n")
	assert.False(t, ok)
}

func TestSplit(t *testing.T) {
	report := strings.Join([]string{
		"# BLASTN 2.14.0+\n",
		"# Query: Q1\n",
		hitLine("Q1", "S1", 95, 1200, 2, 1e-50, 900),
		hitLine("Q1", "S2", 80, 1200, 2, 1e-50, 800),
		"# Query: contig/7\n",
		hitLine("contig/7", "S3", 99, 1500, 0, 0, 1500),
		"# Query: EMPTY\n",
		"# 0 hits found\n",
	}, "")

	sink := newMemBlocks()
	result, err := Split(strings.NewReader(report), sink)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Blocks)
	assert.Equal(t, []string{"Q1", "contig_7", "EMPTY"}, result.Names)
	assert.Equal(t, 1, result.Discarded)

	require.Contains(t, sink.blocks, "contig_7.txt")
	assert.Equal(t, "# Query: contig/7\n", sink.blocks["contig_7.txt"][0])
	assert.Len(t, sink.blocks["Q1.txt"], 3)
	assert.Equal(t, []string{"# Query: EMPTY\n", "# 0 hits found\n"}, sink.blocks["EMPTY.txt"])
}

func TestSplitRoundTrip(t *testing.T) {
	body := strings.Join([]string{
		"# Query: A\n",
		"# Fields: ...\n",
		hitLine("A", "S1", 97.5, 300, 1, 1e-20, 500),
		"\n",
		"# Query: B\n",
		hitLine("B", "S1", 91, 300, 1, 1e-20, 500),
		hitLine("B", "S2", 92, 300, 1, 1e-20, 510),
	}, "")
	// Last line without a terminator must survive too.
	body += "# end of report"

	sink := newMemBlocks()
	_, err := Split(strings.NewReader("preamble line\n"+body), sink)
	require.NoError(t, err)

	var rebuilt strings.Builder
	for _, name := range sink.order {
		for _, line := range sink.blocks[name] {
			rebuilt.WriteString(line)
		}
	}
	assert.Equal(t, body, rebuilt.String())
}

func TestSplitDuplicateIdentifierOverwrites(t *testing.T) {
	report := "# Query: X\n" + hitLine("X", "S1", 95, 10, 0, 1e-3, 20) +
		"# Query: X\n" + hitLine("X", "S2", 96, 10, 0, 1e-3, 21)

	sink := newMemBlocks()
	result, err := Split(strings.NewReader(report), sink)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Blocks)
	require.Len(t, sink.blocks, 1)
	assert.Contains(t, sink.blocks["X.txt"][1], "S2")
}

func TestSplitWithoutMarker(t *testing.T) {
	sink := newMemBlocks()
	result, err := Split(strings.NewReader("a\nb\n"), sink)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Blocks)
	assert.Equal(t, 2, result.Discarded)
	assert.Empty(t, sink.blocks)
}

type failingSink struct{}

func (failingSink) WriteBlock(string, []string) error { return errors.New("disk full") }

func TestSplitSinkError(t *testing.T) {
	_, err := Split(strings.NewReader("# Query: A\n"), failingSink{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write block A")
}
