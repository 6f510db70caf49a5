package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammed-seid/hfc-south-plant/internal/stats"
)

var (
	statsFormat string
	statsOutput string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Build the admin progress report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		feeds, err := env.Loader.Load(ctx)
		if err != nil {
			return eris.Wrap(err, "load feeds")
		}
		corrections, _, err := env.Reader.Load(ctx)
		if err != nil {
			return eris.Wrap(err, "load ledger")
		}

		report := stats.BuildReport(feeds, corrections, cfg.Enumerators)

		out := io.Writer(os.Stdout)
		if statsOutput != "" {
			f, err := os.Create(statsOutput)
			if err != nil {
				return eris.Wrapf(err, "create %s", statsOutput)
			}
			defer f.Close()
			out = f
		}

		switch statsFormat {
		case "csv":
			err = report.WriteCSV(out)
		case "xlsx":
			err = report.WriteXLSX(out)
		case "table":
			err = printReportTable(out, report)
		default:
			return eris.Errorf("unknown format %q (want table, csv, or xlsx)", statsFormat)
		}
		if err != nil {
			return err
		}

		zap.L().Info("report built",
			zap.Int("total_errors", report.Overview.TotalErrors),
			zap.Int("suspects", len(report.Suspects)),
			zap.String("format", statsFormat),
		)
		return nil
	},
}

func printReportTable(out io.Writer, report *stats.Report) error {
	fmt.Fprintf(out, "Constraint errors: %d\nLogic errors: %d\nTotal errors: %d\nFarmers affected: %d\n\n",
		report.Overview.ConstraintErrors, report.Overview.LogicErrors,
		report.Overview.TotalErrors, report.Overview.SubjectsAffected)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tTOTAL\tSOLVED\tREMAINING\tPROGRESS")
	for _, s := range report.Enumerators {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.1f%%\n", s.Username, s.Total, s.Solved, s.Remaining, s.Progress)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(report.Suspects) > 0 {
		fmt.Fprintf(out, "\n%d suspicious values need review:\n", len(report.Suspects))
		for _, s := range report.Suspects {
			fmt.Fprintf(out, "  [%s] %s (%s): %s\n", s.Kind, s.Variable, s.Enumerator, s.Detail)
		}
	}
	return nil
}

func init() {
	statsCmd.Flags().StringVar(&statsFormat, "format", "table", "output format: table, csv, or xlsx")
	statsCmd.Flags().StringVar(&statsOutput, "output", "", "write to file instead of stdout")
	rootCmd.AddCommand(statsCmd)
}
