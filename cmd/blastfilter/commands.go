package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/yumyai/blastview/internal/config"
	"github.com/yumyai/blastview/logger"
	"github.com/yumyai/blastview/pkg/db"
	"github.com/yumyai/blastview/pkg/model"
	"go.uber.org/zap"
)

func newRootCmd(fs afero.Fs, cfg *config.Config) *cobra.Command {
	logLevel := cfg.LogLevel
	var cmdRoot = &cobra.Command{
		Use:   "blastfilter",
		Short: "BLAST tabular report utility",
		Long:  `Split BLAST tabular reports into one file per query, then filter and merge the hits`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logger.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			return logger.InitLogger(level)
		},
	}
	cmdRoot.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "debug, info, warn or error")

	cmdRoot.AddCommand(cmdSplit(fs, cfg))
	cmdRoot.AddCommand(cmdFilter(fs, cfg))
	cmdRoot.AddCommand(cmdAggregate(fs, cfg))
	return cmdRoot
}

// filterFlags binds the filter parameters to a command, starting from defaults.
type filterFlags struct {
	params     model.Params
	sortColumn string
	outputFile string
}

func addFilterFlags(cmd *cobra.Command, defaults model.Params) *filterFlags {
	f := &filterFlags{params: defaults, sortColumn: defaults.SortColumn.String()}
	cmd.Flags().Float64Var(&f.params.Identity, "identity", f.params.Identity, "keep hits with identity above this")
	cmd.Flags().IntVar(&f.params.AlignmentLength, "alignment-length", f.params.AlignmentLength, "keep hits at least this long")
	cmd.Flags().IntVar(&f.params.Mismatches, "mismatches", f.params.Mismatches, "keep hits with at most this many mismatches")
	cmd.Flags().Float64Var(&f.params.EValue, "evalue", f.params.EValue, "keep hits with evalue below this")
	cmd.Flags().IntVar(&f.params.TopN, "top-n", f.params.TopN, "hits kept per query")
	cmd.Flags().StringVar(&f.sortColumn, "sort-column", f.sortColumn, "identity, alignment_length, mismatches, gap_opens, evalue or bit_score")
	cmd.Flags().BoolVar(&f.params.Ascending, "ascending", f.params.Ascending, "sort ascending instead of descending")
	cmd.Flags().StringVarP(&f.outputFile, "output", "o", "", "write TSV to file instead of stdout")
	return f
}

func (f *filterFlags) resolve() (model.Params, error) {
	col, err := model.ParseColumn(f.sortColumn)
	if err != nil {
		return f.params, fmt.Errorf("%w: %w", model.ErrInvalidParams, err)
	}
	p := f.params
	p.SortColumn = col
	return p, p.Validate()
}

// writeRows writes rows as TSV to the output file, or to the command's stdout.
func (f *filterFlags) writeRows(fs afero.Fs, cmd *cobra.Command, rows []model.Hit) error {
	if f.outputFile == "" {
		return model.WriteTSV(cmd.OutOrStdout(), rows)
	}

	out, err := fs.OpenFile(f.outputFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := model.WriteTSV(out, rows); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	logger.Info("Wrote rows", zap.String("output", f.outputFile), zap.Int("rows", len(rows)))
	return nil
}

func cmdSplit(fs afero.Fs, cfg *config.Config) *cobra.Command {
	dataDir := cfg.DataDir
	var cmd = &cobra.Command{
		Use:          "split <report-file>",
		Short:        "split a report into one file per query",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := db.NewBlockStore(fs, dataDir)
			if err != nil {
				return err
			}

			var result model.SplitResult
			if store.IsStoredReport(args[0]) {
				// Already uploaded; split it where it is.
				result, err = store.Split(args[0])
			} else {
				result, err = saveReport(fs, store, args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d query files in %s\n", args[0], result.Blocks, store.SplitDir())
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data", dataDir, "data directory holding uploaded/ and split_queries/")
	return cmd
}

func saveReport(fs afero.Fs, store *db.BlockStore, reportPath string) (model.SplitResult, error) {
	in, err := fs.Open(reportPath)
	if err != nil {
		return model.SplitResult{}, err
	}
	defer in.Close()
	return store.SaveReport(reportPath, in)
}

func cmdFilter(fs afero.Fs, cfg *config.Config) *cobra.Command {
	var flags *filterFlags
	var cmd = &cobra.Command{
		Use:          "filter <block-file>",
		Short:        "filter and rank one query file",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := flags.resolve()
			if err != nil {
				return err
			}

			data, err := afero.ReadFile(fs, args[0])
			if err != nil {
				return err
			}

			outcome := model.ParseBlockText(string(data))
			switch outcome.Status {
			case model.Malformed:
				return fmt.Errorf("%s: %s: %s", args[0], outcome.Status, outcome.Reason())
			case model.Empty:
				logger.Info("Query has no hits", zap.String("block", args[0]))
			}
			return flags.writeRows(fs, cmd, model.FilterAndRank(outcome.Rows, params))
		},
	}
	flags = addFilterFlags(cmd, cfg.Defaults)
	return cmd
}

func cmdAggregate(fs afero.Fs, cfg *config.Config) *cobra.Command {
	dataDir := cfg.DataDir
	var flags *filterFlags
	var cmd = &cobra.Command{
		Use:          "aggregate",
		Short:        "filter every query file and merge the results",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := flags.resolve()
			if err != nil {
				return err
			}

			store, err := db.NewBlockStore(fs, dataDir)
			if err != nil {
				return err
			}
			result, err := store.Aggregate(params)
			if err != nil {
				return err
			}

			if err := flags.writeRows(fs, cmd, result.Rows); err != nil {
				return err
			}
			report(cmd.ErrOrStderr(), result)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data", dataDir, "data directory holding split_queries/")
	flags = addFilterFlags(cmd, cfg.Defaults)
	return cmd
}

func report(w io.Writer, result *model.AggregateResult) {
	fmt.Fprintf(w, "total hits: %d from %d query files\n", result.TotalHits, result.Blocks)
	for _, s := range result.Skipped {
		fmt.Fprintf(w, "skipped %s: %s\n", s.Name, s.Reason)
	}
}
