package db

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/yumyai/blastview/internal/util"
	"github.com/yumyai/blastview/logger"
	"github.com/yumyai/blastview/pkg/model"
	"go.uber.org/zap"
)

// Defining possible error
var ErrBlockNotFound = errors.New("query block does not exist")

const (
	uploadDirName = "uploaded"
	splitDirName  = "split_queries"
	blockExt      = ".txt"
)

// BlockStore keeps uploaded reports verbatim and the per-query files split out of them.
//
//	<dir>/uploaded/<report name>
//	<dir>/split_queries/<sanitized query id>.txt
type BlockStore struct {
	Dir string

	fs afero.Fs
	// Split holds the write lock for the whole split; readers hold the read lock.
	mu sync.RWMutex
}

func NewBlockStore(fs afero.Fs, dir string) (*BlockStore, error) {
	store := &BlockStore{Dir: dir, fs: fs}
	if err := util.EnsureDirs(fs, store.uploadDir(), store.splitDir()); err != nil {
		return nil, fmt.Errorf("prepare block store: %w", err)
	}
	return store, nil
}

func (s *BlockStore) uploadDir() string {
	return path.Join(s.Dir, uploadDirName)
}

func (s *BlockStore) splitDir() string {
	return path.Join(s.Dir, splitDirName)
}

// SplitDir is where the per-query files live.
func (s *BlockStore) SplitDir() string {
	return s.splitDir()
}

// SaveReport stores an uploaded report under its base name and splits it into blocks.
// A reader that is the stored report itself (an afero or os file at that path) is
// split in place, never copied onto itself.
func (s *BlockStore) SaveReport(name string, r io.Reader) (model.SplitResult, error) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == ".." || base == "/" || base == "" {
		return model.SplitResult{}, fmt.Errorf("invalid report name %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reportPath := path.Join(s.uploadDir(), base)
	if named, ok := r.(interface{ Name() string }); ok && path.Clean(named.Name()) == reportPath {
		return s.splitLocked(reportPath)
	}

	// Written beside the target and renamed, so a failed copy never clobbers a stored report.
	tmpPath := reportPath + ".part"
	f, err := s.fs.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return model.SplitResult{}, fmt.Errorf("create %s: %w", tmpPath, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		s.fs.Remove(tmpPath)
		return model.SplitResult{}, fmt.Errorf("write %s: %w", reportPath, err)
	}
	if err := f.Close(); err != nil {
		s.fs.Remove(tmpPath)
		return model.SplitResult{}, err
	}
	if err := s.fs.Rename(tmpPath, reportPath); err != nil {
		s.fs.Remove(tmpPath)
		return model.SplitResult{}, fmt.Errorf("store %s: %w", reportPath, err)
	}

	return s.splitLocked(reportPath)
}

// IsStoredReport reports whether reportPath already lives in the upload directory.
func (s *BlockStore) IsStoredReport(reportPath string) bool {
	return path.Dir(path.Clean(reportPath)) == path.Clean(s.uploadDir())
}

// Split splits a report that is already on the store's filesystem.
func (s *BlockStore) Split(reportPath string) (model.SplitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.splitLocked(reportPath)
}

func (s *BlockStore) splitLocked(reportPath string) (model.SplitResult, error) {
	f, err := s.fs.Open(reportPath)
	if err != nil {
		return model.SplitResult{}, fmt.Errorf("open %s: %w", reportPath, err)
	}
	defer f.Close()

	result, err := model.Split(f, blockWriter{s})
	if err != nil {
		return result, err
	}
	if result.Discarded > 0 {
		logger.Warn("Dropped lines before the first query marker",
			zap.String("report", reportPath),
			zap.Int("lines", result.Discarded),
		)
	}
	logger.Info("Split report", zap.String("report", reportPath), zap.Int("blocks", result.Blocks))
	return result, nil
}

// blockWriter writes blocks without taking the lock; the caller already holds it.
type blockWriter struct{ s *BlockStore }

func (w blockWriter) WriteBlock(name string, lines []string) error {
	return afero.WriteFile(w.s.fs, path.Join(w.s.splitDir(), name+blockExt), []byte(strings.Join(lines, "")), 0o644)
}

// WriteBlock stores one block, replacing any block with the same name.
func (s *BlockStore) WriteBlock(name string, lines []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return blockWriter{s}.WriteBlock(model.SanitizeQueryID(name), lines)
}

// ListBlocks returns the stored block file names, sorted.
func (s *BlockStore) ListBlocks() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked()
}

func (s *BlockStore) listLocked() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.splitDir())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.splitDir(), err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), blockExt) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ReadBlock returns the lines of one stored block, line endings included.
func (s *BlockStore) ReadBlock(name string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readLocked(name)
}

func (s *BlockStore) readLocked(name string) ([]string, error) {
	if name != path.Base(name) || !strings.HasSuffix(name, blockExt) {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, name)
	}
	data, err := afero.ReadFile(s.fs, path.Join(s.splitDir(), name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return model.SplitLines(string(data)), nil
}

// Aggregate runs the aggregator while holding the read lock, so a concurrent upload can
// not swap blocks out halfway through.
func (s *BlockStore) Aggregate(p model.Params) (*model.AggregateResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.Aggregate(lockedSource{s}, p)
}

type lockedSource struct{ s *BlockStore }

func (l lockedSource) ListBlocks() ([]string, error)           { return l.s.listLocked() }
func (l lockedSource) ReadBlock(name string) ([]string, error) { return l.s.readLocked(name) }
