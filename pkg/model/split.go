package model

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Line prefix that opens a new query block.
const QueryMarker = "# Query:"

// Name given to a block whose marker carries no identifier.
const UnnamedBlock = "unnamed"

// BlockSink receives one finished block at a time.
type BlockSink interface {
	WriteBlock(name string, lines []string) error
}

// SplitResult summarises one split.
type SplitResult struct {
	Blocks    int      // blocks written, duplicate identifiers counted every time
	Names     []string // sanitized identifiers in the order they were written
	Discarded int      // lines seen before the first marker
}

// SanitizeQueryID turns a block identifier into a safe file stem.
func SanitizeQueryID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.NewReplacer("/", "_", "\\", "_").Replace(id)
	if id == "" {
		return UnnamedBlock
	}
	return id
}

// QueryID returns the identifier of a marker line, and whether line is a marker at all.
func QueryID(line string) (string, bool) {
	if !strings.HasPrefix(line, QueryMarker) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, QueryMarker)), true
}

// Split reads a report and hands every "# Query:" block to sink. A block runs from its
// marker line up to the next marker or the end of input. Lines before the first marker
// belong to no block and are only counted.
func Split(r io.Reader, sink BlockSink) (SplitResult, error) {
	var (
		result  SplitResult
		current []string
		name    string
		open    bool
	)

	flush := func() error {
		if !open {
			return nil
		}
		if err := sink.WriteBlock(name, current); err != nil {
			return fmt.Errorf("write block %s: %w", name, err)
		}
		result.Blocks++
		result.Names = append(result.Names, name)
		return nil
	}

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return result, fmt.Errorf("read report: %w", err)
		}

		if line != "" {
			if id, ok := QueryID(line); ok {
				if ferr := flush(); ferr != nil {
					return result, ferr
				}
				name = SanitizeQueryID(id)
				current = []string{line}
				open = true
			} else if open {
				current = append(current, line)
			} else {
				result.Discarded++
			}
		}

		if err == io.EOF {
			break
		}
	}

	if err := flush(); err != nil {
		return result, err
	}
	return result, nil
}
