package main

import (
	"fmt"
	"strconv"

	"github.com/japaniel/ownsync/pkg/dump"
	"github.com/japaniel/ownsync/pkg/reconcile"
	"github.com/japaniel/ownsync/pkg/suggest"
	"github.com/japaniel/ownsync/pkg/update"
	"github.com/spf13/cobra"
)

func newUpdateCmd(a *app) *cobra.Command {
	var (
		dumpPath        string
		suggestionsPath string
		votesPath       string
		outPath         string
		dryRun          bool
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Apply voted suggestions to the dump and regenerate the graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := dump.Load(cmd.Context(), dumpPath)
			if err != nil {
				return fmt.Errorf("load dump: %w", err)
			}
			in := reconcile.Input{Docs: docs, Policy: a.cfg.Policy, DryRun: dryRun}
			if suggestionsPath != "" {
				if in.Suggestions, err = suggest.LoadSuggestions(cmd.Context(), suggestionsPath); err != nil {
					return fmt.Errorf("load suggestions: %w", err)
				}
			}
			if votesPath != "" {
				if in.Votes, err = suggest.LoadVotes(cmd.Context(), votesPath); err != nil {
					return fmt.Errorf("load votes: %w", err)
				}
			}

			var updater *update.Updater
			if !dryRun {
				store, closeStore, err := a.openStore(false)
				if err != nil {
					return err
				}
				defer closeStore()
				updater = update.New(store, a.cfg.Vocabulary(), a.cfg.Language, a.log)
			}

			engine := reconcile.New(updater, a.log)
			engine.Metrics = a.metrics
			res, err := engine.Run(cmd.Context(), in)
			if err != nil {
				return err
			}

			if outPath != "" {
				if err := docs.Save(outPath); err != nil {
					return fmt.Errorf("save dump: %w", err)
				}
				a.log.WithField("file", outPath).Info("patched dump written")
			}
			if err := formatJSON(a.stdout, res); err != nil {
				return err
			}

			row := []string{
				strconv.Itoa(res.Suggestions), strconv.Itoa(res.Accepted),
				strconv.Itoa(res.Patch.Applied), strconv.Itoa(res.Patch.Skipped), "-", "-",
			}
			if res.Update != nil {
				row[4] = strconv.FormatInt(res.Update.Removed, 10)
				row[5] = strconv.Itoa(res.Update.Written)
			}
			formatTable(a.stderr, []string{"SUGGESTIONS", "ACCEPTED", "APPLIED", "SKIPPED", "REMOVED", "WRITTEN"}, [][]string{row})
			return nil
		},
	}
	cmd.Flags().StringVar(&dumpPath, "dump", "", "Dump export (JSON array or JSON lines)")
	cmd.Flags().StringVar(&suggestionsPath, "suggestions", "", "Suggestion export")
	cmd.Flags().StringVar(&votesPath, "votes", "", "Vote export")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the patched dump here")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Patch in memory only; leave the graph untouched")
	_ = cmd.MarkFlagRequired("dump")
	return cmd
}
