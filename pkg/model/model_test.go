package model

import (
	"fmt"
	"sort"
	"strings"
)

// memBlocks is an in-memory BlockSink and BlockSource.
type memBlocks struct {
	blocks map[string][]string
	order  []string
}

func newMemBlocks() *memBlocks {
	return &memBlocks{blocks: make(map[string][]string)}
}

func (m *memBlocks) WriteBlock(name string, lines []string) error {
	file := name + ".txt"
	if _, ok := m.blocks[file]; !ok {
		m.order = append(m.order, file)
	}
	m.blocks[file] = append([]string(nil), lines...)
	return nil
}

func (m *memBlocks) ListBlocks() ([]string, error) {
	names := make([]string, 0, len(m.blocks))
	for k := range m.blocks {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

func (m *memBlocks) ReadBlock(name string) ([]string, error) {
	lines, ok := m.blocks[name]
	if !ok {
		return nil, fmt.Errorf("no block %s", name)
	}
	return lines, nil
}

// hitLine builds one outfmt 6 data line.
func hitLine(query, subject string, identity float64, length, mismatches int, evalue, bitScore float64) string {
	return strings.Join([]string{
		query,
		subject,
		fmt.Sprintf("%.3f", identity),
		fmt.Sprint(length),
		fmt.Sprint(mismatches),
		"0",
		"1",
		fmt.Sprint(length),
		"101",
		fmt.Sprint(100 + length),
		fmt.Sprintf("%.2e", evalue),
		fmt.Sprint(bitScore),
	}, "\t") + "\n"
}

func blockHeader(query string) []string {
	return []string{
		"# Query: " + query + "\n",
		"# Database: nt\n",
		"# Fields: query acc.ver, subject acc.ver, % identity, alignment length, mismatches, gap opens, q. start, q. end, s. start, s. end, evalue, bit score\n",
	}
}

// permissive only filters on identity.
func permissive() Params {
	return Params{
		Identity:        0,
		AlignmentLength: 0,
		Mismatches:      1 << 20,
		EValue:          10,
		TopN:            100,
		SortColumn:      ColumnIdentity,
	}
}
