package model

import (
	"errors"
	"fmt"
	"sort"

	"github.com/yumyai/blastview/logger"
	"go.uber.org/zap"
)

var ErrNoBlocks = errors.New("no query blocks stored")

// BlockSource lists and reads stored blocks. Names are the stored file names.
type BlockSource interface {
	ListBlocks() ([]string, error)
	ReadBlock(name string) ([]string, error)
}

// SkippedBlock is a block that contributed no table to an aggregation.
type SkippedBlock struct {
	Name   string      `json:"name"`
	Status ParseStatus `json:"-"`
	Reason string      `json:"reason"`
}

// AggregateResult is the merged output of one aggregation.
type AggregateResult struct {
	Rows      []Hit          `json:"rows"`
	TotalHits int            `json:"total_hits"`
	Blocks    int            `json:"blocks"`
	Skipped   []SkippedBlock `json:"skipped"`
}

// SkippedNames returns the names of skipped blocks in enumeration order.
func (a *AggregateResult) SkippedNames() []string {
	names := make([]string, 0, len(a.Skipped))
	for _, s := range a.Skipped {
		names = append(names, s.Name)
	}
	return names
}

// Aggregate runs FilterAndRank over every stored block and concatenates the results.
// Blocks are visited in sorted name order. Empty or malformed blocks are recorded in
// Skipped and never stop the run.
func Aggregate(src BlockSource, p Params) (*AggregateResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	names, err := src.ListBlocks()
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	if len(names) == 0 {
		return nil, ErrNoBlocks
	}
	names = append([]string(nil), names...)
	sort.Strings(names)

	result := &AggregateResult{
		Rows:    []Hit{},
		Skipped: []SkippedBlock{},
		Blocks:  len(names),
	}

	for _, name := range names {
		lines, err := src.ReadBlock(name)
		if err != nil {
			return nil, fmt.Errorf("read block %s: %w", name, err)
		}

		outcome := ParseBlock(lines)
		if outcome.Status != Parsed {
			logger.Debug("Skipping block", zap.String("block", name), zap.String("reason", outcome.Reason()))
			result.Skipped = append(result.Skipped, SkippedBlock{
				Name:   name,
				Status: outcome.Status,
				Reason: outcome.Reason(),
			})
			continue
		}

		ranked := FilterAndRank(outcome.Rows, p)
		result.TotalHits += len(ranked)
		result.Rows = append(result.Rows, ranked...)
	}

	logger.Info("Aggregated blocks",
		zap.Int("blocks", result.Blocks),
		zap.Int("total_hits", result.TotalHits),
		zap.Int("skipped", len(result.Skipped)),
	)

	return result, nil
}
