package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseStatus tags the result of parsing one block.
type ParseStatus int

const (
	// Parsed means at least one data line was read into the table.
	Parsed ParseStatus = iota
	// Empty means the block only had comment or blank lines.
	Empty
	// Malformed means a data line did not fit the 12 column schema.
	Malformed
)

func (s ParseStatus) String() string {
	switch s {
	case Parsed:
		return "parsed"
	case Empty:
		return "empty"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// RowError describes the first data line of a block that could not be read.
type RowError struct {
	Line   int // 1-based line number inside the block
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ParseOutcome keeps "no data lines" apart from "could not read the data lines".
type ParseOutcome struct {
	Status ParseStatus
	Rows   []Hit
	// Raw holds every line of the block, comments included, without line endings.
	Raw []string
	Err *RowError
}

// Reason is a short label for why a block produced no table. Empty for Parsed.
func (o ParseOutcome) Reason() string {
	switch o.Status {
	case Empty:
		return "no data lines"
	case Malformed:
		if o.Err != nil {
			return o.Err.Error()
		}
		return "malformed"
	}
	return ""
}

// ParseBlock reads the lines of one query block. Lines starting with '#' and blank lines
// are kept in Raw but never parsed. Every other line must hold the 12 tab separated fields;
// columns 3-12 are numeric by declaration.
func ParseBlock(lines []string) ParseOutcome {
	outcome := ParseOutcome{Raw: make([]string, 0, len(lines))}

	for i, line := range lines {
		line = strings.TrimRight(line, "\r\n")
		outcome.Raw = append(outcome.Raw, line)

		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		if outcome.Err != nil {
			continue
		}

		hit, err := parseHit(line)
		if err != nil {
			outcome.Err = &RowError{Line: i + 1, Reason: err.Error()}
			continue
		}
		outcome.Rows = append(outcome.Rows, hit)
	}

	switch {
	case outcome.Err != nil:
		outcome.Status = Malformed
		outcome.Rows = nil
	case len(outcome.Rows) == 0:
		outcome.Status = Empty
	default:
		outcome.Status = Parsed
	}
	return outcome
}

// ParseBlockText is ParseBlock over a whole block file.
func ParseBlockText(text string) ParseOutcome {
	return ParseBlock(SplitLines(text))
}

// CommentLines returns the trimmed '#' lines of a block, for the annotation panel.
func CommentLines(raw []string) []string {
	var comments []string
	for _, line := range raw {
		if strings.HasPrefix(line, "#") {
			comments = append(comments, strings.TrimSpace(line))
		}
	}
	return comments
}

func parseHit(line string) (Hit, error) {
	parts := strings.Split(line, "\t")
	if len(parts) != HitFieldCount {
		return Hit{}, fmt.Errorf("expected %d tab separated fields, got %d", HitFieldCount, len(parts))
	}

	var h Hit
	for i, p := range parts {
		h.fields[i] = strings.TrimSpace(p)
	}

	h.Query = h.fields[0]
	h.Subject = h.fields[1]

	var err error
	floats := []struct {
		idx int
		dst *float64
	}{
		{2, &h.Identity},
		{10, &h.EValue},
		{11, &h.BitScore},
	}
	for _, f := range floats {
		// NaN has no place in an ordering, so it can not be ranked.
		if *f.dst, err = strconv.ParseFloat(h.fields[f.idx], 64); err != nil || math.IsNaN(*f.dst) {
			return Hit{}, fmt.Errorf("%s: %q is not a number", HitColumns[f.idx], h.fields[f.idx])
		}
	}

	ints := []struct {
		idx int
		dst *int
	}{
		{3, &h.AlignmentLength},
		{4, &h.Mismatches},
		{5, &h.GapOpens},
		{6, &h.QStart},
		{7, &h.QEnd},
		{8, &h.SStart},
		{9, &h.SEnd},
	}
	for _, f := range ints {
		if *f.dst, err = strconv.Atoi(h.fields[f.idx]); err != nil {
			return Hit{}, fmt.Errorf("%s: %q is not an integer", HitColumns[f.idx], h.fields[f.idx])
		}
	}

	return h, nil
}

// SplitLines breaks text into lines keeping each line's terminator, so that joining the
// result gives back the input.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
