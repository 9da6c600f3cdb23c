/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/typeline/pkg/config"
	"github.com/ssargent/typeline/pkg/errors"
	"github.com/ssargent/typeline/pkg/row"
	"github.com/ssargent/typeline/pkg/stream"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Rewrite a file in another dialect",
	Long: `Rewrite a file in another dialect, re-encoding every valid row with
the configured schema. Invalid rows are reported and dropped unless --strict
is set, in which case the output is discarded.

The output is written atomically when the configuration asks for it.
Use - for standard input or output.

Examples:
  typeline convert --to csv readings.tsv readings.csv
  typeline convert --to tsv --strict - -`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}
		to, _ := cmd.Flags().GetString("to")
		strict, _ := cmd.Flags().GetBool("strict")

		target, err := row.DialectByName(to)
		if err != nil {
			return err
		}
		res, err := convertFile(cfg, args[0], args[1], target, strict)
		if err != nil {
			return err
		}
		for _, e := range res.Dropped {
			cmd.PrintErrf("dropped: %v\n", e)
		}
		container.GetLogger().Info("converted file",
			zap.String("input", args[0]),
			zap.String("output", args[1]),
			zap.Int("records", res.Records),
			zap.Int("dropped", len(res.Dropped)),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().String("to", "csv", "Output dialect (csv or tsv)")
	convertCmd.Flags().Bool("strict", false, "Fail on the first invalid row instead of dropping it")
}

type convertResult struct {
	Records int
	Dropped []error
}

// convertFile copies the rows of in to out, switching the dialect to target.
// The header setting and comment prefixes of cfg apply to both sides.
func convertFile(cfg *config.Config, in, out string, target row.Dialect, strict bool) (convertResult, error) {
	var res convertResult

	s, err := cfg.BuildSchema()
	if err != nil {
		return res, err
	}
	readOpts, err := streamOptions(cfg)
	if err != nil {
		return res, err
	}
	r, err := openDynamic(in, s, readOpts)
	if err != nil {
		return res, err
	}
	defer r.Close()

	writeOpts, err := streamOptions(cfg, stream.WithDialect(target))
	if err != nil {
		return res, err
	}
	w, err := stream.CreateDynamicWriter(out, s, writeOpts...)
	if err != nil {
		return res, fmt.Errorf("failed to create %s: %w", out, err)
	}

	if cfg.Format.Header {
		if err := w.WriteHeader(); err != nil {
			_ = w.Abort()
			return res, err
		}
	}
	for obj, err := range r.All() {
		if err != nil {
			var rowErr *errors.Error
			if strict || !errors.As(err, &rowErr) {
				_ = w.Abort()
				return res, fmt.Errorf("%s: %w", in, err)
			}
			res.Dropped = append(res.Dropped, err)
			continue
		}
		if err := w.Write(obj); err != nil {
			_ = w.Abort()
			return res, err
		}
	}
	res.Records = w.Records()
	return res, w.Close()
}
