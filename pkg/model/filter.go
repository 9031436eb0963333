package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrInvalidParams = errors.New("invalid filter parameters")

// Params are the thresholds and ranking options of one filter pass.
type Params struct {
	Identity        float64 `yaml:"identity" json:"identity"`                 // strict lower bound
	AlignmentLength int     `yaml:"alignment_length" json:"alignment_length"` // inclusive lower bound
	Mismatches      int     `yaml:"mismatches" json:"mismatches"`             // inclusive upper bound
	EValue          float64 `yaml:"evalue" json:"evalue"`                     // strict upper bound
	TopN            int     `yaml:"top_n" json:"top_n"`
	SortColumn      Column  `yaml:"sort_column" json:"sort_column"`
	Ascending       bool    `yaml:"ascending" json:"ascending"`
}

// DefaultParams mirror the values the report viewer opens with.
func DefaultParams() Params {
	return Params{
		Identity:        90,
		AlignmentLength: 1000,
		Mismatches:      10,
		EValue:          1e-5,
		TopN:            5,
		SortColumn:      ColumnIdentity,
		Ascending:       false,
	}
}

func (p Params) Validate() error {
	if math.IsNaN(p.Identity) || p.Identity < 0 || p.Identity > 100 {
		return fmt.Errorf("%w: identity must be within [0, 100], got %v", ErrInvalidParams, p.Identity)
	}
	if math.IsNaN(p.EValue) {
		return fmt.Errorf("%w: evalue is not a number", ErrInvalidParams)
	}
	if p.TopN < 1 {
		return fmt.Errorf("%w: top_n must be at least 1, got %d", ErrInvalidParams, p.TopN)
	}
	if p.SortColumn.String() == "unknown" {
		return fmt.Errorf("%w: %w", ErrInvalidParams, ErrUnknownColumn)
	}
	return nil
}

// Keep reports whether h passes all four thresholds.
func (p Params) Keep(h *Hit) bool {
	return h.Identity > p.Identity &&
		h.AlignmentLength >= p.AlignmentLength &&
		h.Mismatches <= p.Mismatches &&
		h.EValue < p.EValue
}

// FilterAndRank applies the thresholds, sorts the survivors by the sort column (stable, so
// ties keep input order) and keeps at most TopN rows per query. The input is not modified.
func FilterAndRank(rows []Hit, p Params) []Hit {
	kept := make([]Hit, 0, len(rows))
	for i := range rows {
		if p.Keep(&rows[i]) {
			kept = append(kept, rows[i])
		}
	}

	col := p.SortColumn
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i].value(col), kept[j].value(col)
		if p.Ascending {
			return a < b
		}
		return a > b
	})

	perQuery := make(map[string]int)
	ranked := kept[:0]
	for _, h := range kept {
		if perQuery[h.Query] >= p.TopN {
			continue
		}
		perQuery[h.Query]++
		ranked = append(ranked, h)
	}
	return ranked
}
