package model

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// WriteTSV writes a header row followed by one tab separated row per hit.
func WriteTSV(w io.Writer, rows []Hit) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(strings.Join(HitColumns[:], "\t") + "\n"); err != nil {
		return err
	}
	for i := range rows {
		if _, err := bw.WriteString(FormatHitTSV(&rows[i]) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FormatHitTSV returns the 12 columns of h (no trailing newline). Tokens read from a
// report are written back as they were; hits built in code fall back to Go formatting.
func FormatHitTSV(h *Hit) string {
	if h.fields[0] != "" {
		return strings.Join(h.fields[:], "\t")
	}
	return strings.Join([]string{
		h.Query,
		h.Subject,
		formatFloat(h.Identity),
		strconv.Itoa(h.AlignmentLength),
		strconv.Itoa(h.Mismatches),
		strconv.Itoa(h.GapOpens),
		strconv.Itoa(h.QStart),
		strconv.Itoa(h.QEnd),
		strconv.Itoa(h.SStart),
		strconv.Itoa(h.SEnd),
		formatFloat(h.EValue),
		formatFloat(h.BitScore),
	}, "\t")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
