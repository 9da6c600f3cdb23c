/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/typeline/pkg/config"
	"github.com/ssargent/typeline/pkg/errors"
	"github.com/ssargent/typeline/pkg/stream"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Validate files against the configured schema",
	Long: `Validate one or more files against the configured schema. Every
row that fails to decode is reported with its line number. Use - to read
standard input.

The command exits non-zero when any row is invalid. With --watch it keeps
running and re-checks each file whenever it is written.

Examples:
  typeline check readings.tsv
  typeline check --stats --no-header a.tsv b.tsv
  typeline check --watch exports/*.tsv`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}
		noHeader, _ := cmd.Flags().GetBool("no-header")
		stats, _ := cmd.Flags().GetBool("stats")

		var extra []stream.Option
		if noHeader {
			extra = append(extra, stream.WithHeader(false))
		}
		if stats || cfg.Metrics.Enabled {
			extra = append(extra, stream.WithMetrics(rowMetrics()))
		}

		var total checkResult
		for _, path := range args {
			res, err := checkFile(cfg, path, cmd.OutOrStdout(), extra...)
			if err != nil {
				return err
			}
			container.GetLogger().Info("checked file",
				zap.String("path", path),
				zap.Int("records", res.Records),
				zap.Int("invalid", res.Invalid),
			)
			total.Records += res.Records
			total.Invalid += res.Invalid
		}

		if stats {
			if err := printMetrics(cmd.OutOrStdout(), container.GetMetricsRegistry()); err != nil {
				return err
			}
		}
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.PrintErrf("Watching %d file(s), press Ctrl+C to stop\n", len(args))
			return watchFiles(ctx, args, watchDebounce, func(path string) {
				res, err := checkFile(cfg, path, cmd.OutOrStdout(), extra...)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%v\n", err)
					return
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d valid, %d invalid\n", path, res.Records, res.Invalid)
			})
		}
		if total.Invalid > 0 {
			return fmt.Errorf("%d of %d rows invalid", total.Invalid, total.Records+total.Invalid)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().Bool("no-header", false, "Treat the first line as data")
	checkCmd.Flags().Bool("stats", false, "Print row metrics after checking")
	checkCmd.Flags().Bool("watch", false, "Keep running and re-check files when they change")
}

type checkResult struct {
	Records int
	Invalid int
}

// checkFile decodes every row of path and writes one report line per
// invalid row to out. Header and I/O failures abort the check.
func checkFile(cfg *config.Config, path string, out io.Writer, extra ...stream.Option) (checkResult, error) {
	var res checkResult

	s, err := cfg.BuildSchema()
	if err != nil {
		return res, err
	}
	opts, err := streamOptions(cfg, extra...)
	if err != nil {
		return res, err
	}
	r, err := openDynamic(path, s, opts)
	if err != nil {
		return res, err
	}
	defer r.Close()

	for _, err := range r.All() {
		if err == nil {
			continue
		}
		var rowErr *errors.Error
		if !errors.As(err, &rowErr) {
			return res, fmt.Errorf("%s: %w", path, err)
		}
		res.Invalid++
		fmt.Fprintf(out, "%s:%d: %v\n", path, rowErr.Line, err)
	}
	res.Records = r.Records()
	return res, nil
}
