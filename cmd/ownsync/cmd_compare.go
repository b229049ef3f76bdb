package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/japaniel/ownsync/pkg/compare"
	"github.com/japaniel/ownsync/pkg/dump"
	"github.com/spf13/cobra"
)

// errDiverged makes compare exit non-zero when asked to.
var errDiverged = errors.New("dump and graph diverge")

func newCompareCmd(a *app) *cobra.Command {
	var (
		dumpPath   string
		relations  string
		reportPath string
		failOnDiff bool
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Report where the dump and the graph disagree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rels, err := a.cfg.SelectRelations(relations)
			if err != nil {
				return err
			}
			docs, err := dump.Load(cmd.Context(), dumpPath)
			if err != nil {
				return fmt.Errorf("load dump: %w", err)
			}
			store, closeStore, err := a.openStore(true)
			if err != nil {
				return err
			}
			defer closeStore()

			cmp := compare.NewComparator(store, a.cfg.Vocabulary(), docs, a.log)
			o := compare.NewOrchestrator(cmp, rels).WithRunID(a.runID)
			o.Metrics = a.metrics
			report, err := o.Run(cmd.Context())
			if err != nil {
				return err
			}

			if err := writeJSON(a, reportPath, report); err != nil {
				return err
			}
			printReportSummary(a, report)
			if failOnDiff && !report.Compare {
				return errDiverged
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dumpPath, "dump", "", "Dump export (JSON array or JSON lines)")
	cmd.Flags().StringVar(&relations, "relations", "all", "Comma-separated relation groups or names")
	cmd.Flags().StringVar(&reportPath, "report", "-", "Write the JSON report here (- for stdout)")
	cmd.Flags().BoolVar(&failOnDiff, "fail-on-diff", false, "Exit non-zero when anything diverges")
	_ = cmd.MarkFlagRequired("dump")
	return cmd
}

func printReportSummary(a *app, r *compare.Report) {
	var rows [][]string
	for _, f := range dump.Fields {
		c := r.Items[f]
		rows = append(rows, []string{string(f), verdict(c), strconv.Itoa(c.Both), strconv.Itoa(c.Dump), strconv.Itoa(c.RDF)})
	}
	names := make([]string, 0, len(r.Relations))
	for name := range r.Relations {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := r.Relations[name].Count
		rows = append(rows, []string{name, verdict(c), strconv.Itoa(c.Both), strconv.Itoa(c.Dump), strconv.Itoa(c.RDF)})
	}
	formatTable(a.stderr, []string{"CHECK", "COMPARE", "BOTH", "DUMP ONLY", "RDF ONLY"}, rows)
}

func verdict(c compare.Counts) string {
	return strconv.FormatBool(c.Dump == 0 && c.RDF == 0)
}

func writeJSON(a *app, path string, v any) error {
	if path == "" || path == "-" {
		return formatJSON(a.stdout, v)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := formatJSON(f, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
