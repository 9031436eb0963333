package model

import (
	"errors"
	"fmt"
	"strings"
)

// Number of tab separated fields in a BLAST tabular (outfmt 6/7) data line.
const HitFieldCount = 12

// Column names in the fixed positional order of the report. There is no header in the source.
var HitColumns = [HitFieldCount]string{
	"query", "subject", "identity", "alignment_length", "mismatches", "gap_opens",
	"q_start", "q_end", "s_start", "s_end", "evalue", "bit_score",
}

var ErrUnknownColumn = errors.New("unknown sort column")

// Hit is one alignment row of a query block.
type Hit struct {
	Query           string  `json:"query"`
	Subject         string  `json:"subject"`
	Identity        float64 `json:"identity"`
	AlignmentLength int     `json:"alignment_length"`
	Mismatches      int     `json:"mismatches"`
	GapOpens        int     `json:"gap_opens"`
	QStart          int     `json:"q_start"`
	QEnd            int     `json:"q_end"`
	SStart          int     `json:"s_start"`
	SEnd            int     `json:"s_end"`
	EValue          float64 `json:"evalue"`
	BitScore        float64 `json:"bit_score"`

	// Tokens as they appeared in the report, used when exporting.
	fields [HitFieldCount]string
}

// Fields returns the source tokens of the hit in column order.
func (h Hit) Fields() [HitFieldCount]string {
	return h.fields
}

// Column is a field a hit table can be sorted by.
type Column int

const (
	ColumnIdentity Column = iota
	ColumnAlignmentLength
	ColumnMismatches
	ColumnGapOpens
	ColumnEValue
	ColumnBitScore
)

func (c Column) String() string {
	switch c {
	case ColumnIdentity:
		return "identity"
	case ColumnAlignmentLength:
		return "alignment_length"
	case ColumnMismatches:
		return "mismatches"
	case ColumnGapOpens:
		return "gap_opens"
	case ColumnEValue:
		return "evalue"
	case ColumnBitScore:
		return "bit_score"
	default:
		return "unknown"
	}
}

// SortColumns lists the accepted sort columns, in the order a form should offer them.
func SortColumns() []Column {
	return []Column{ColumnIdentity, ColumnAlignmentLength, ColumnMismatches, ColumnGapOpens, ColumnEValue, ColumnBitScore}
}

func ParseColumn(raw string) (Column, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "identity":
		return ColumnIdentity, nil
	case "alignment_length":
		return ColumnAlignmentLength, nil
	case "mismatches":
		return ColumnMismatches, nil
	case "gap_opens":
		return ColumnGapOpens, nil
	case "evalue":
		return ColumnEValue, nil
	case "bit_score":
		return ColumnBitScore, nil
	default:
		return ColumnIdentity, fmt.Errorf("%w: %q", ErrUnknownColumn, raw)
	}
}

// MarshalText lets columns travel through YAML and JSON by name.
func (c Column) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Column) UnmarshalText(text []byte) error {
	parsed, err := ParseColumn(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// value returns the numeric value of column c for h.
func (h *Hit) value(c Column) float64 {
	switch c {
	case ColumnIdentity:
		return h.Identity
	case ColumnAlignmentLength:
		return float64(h.AlignmentLength)
	case ColumnMismatches:
		return float64(h.Mismatches)
	case ColumnGapOpens:
		return float64(h.GapOpens)
	case ColumnEValue:
		return h.EValue
	case ColumnBitScore:
		return h.BitScore
	}
	return 0
}
