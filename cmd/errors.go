package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammed-seid/hfc-south-plant/internal/ledger"
	"github.com/mohammed-seid/hfc-south-plant/internal/model"
)

var errorsEnumerator string

var errorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "List an enumerator's unresolved errors",
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

		resolved, version, err := env.Reader.LoadResolvedKeys(ctx, errorsEnumerator)
		if err != nil {
			return eris.Wrap(err, "load resolved keys")
		}

		remaining := ledger.FilterUnresolved(feeds.ForEnumerator(errorsEnumerator), resolved, nil)
		zap.L().Info("unresolved errors",
			zap.String("enumerator", errorsEnumerator),
			zap.Int("remaining", len(remaining)),
			zap.Int("resolved", len(resolved)),
			zap.String("ledger_version", string(version)),
		)

		return printErrorTable(remaining)
	},
}

func printErrorTable(records []model.ErrorRecord) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tFARMER\tSUBJECT\tVARIABLE\tVALUE\tREFERENCE")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Category, r.FarmerName, r.SubjectID, r.Variable, r.ReportedValue, r.Reference())
	}
	return w.Flush()
}

func init() {
	errorsCmd.Flags().StringVar(&errorsEnumerator, "enumerator", "", "enumerator username (required)")
	_ = errorsCmd.MarkFlagRequired("enumerator")
	rootCmd.AddCommand(errorsCmd)
}
