package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/japaniel/ownsync/pkg/db"
	"github.com/japaniel/ownsync/pkg/graph"
	"github.com/japaniel/ownsync/pkg/rdf"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or migrate the graph database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore(false)
			if err != nil {
				return err
			}
			defer closeStore()

			n, err := db.Count(cmd.Context(), store.Conn())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Database initialized at %s (%d triples)\n", a.cfg.Database, n)
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.nt>...",
		Short: "Load N-Triples files into the graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore(false)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx := cmd.Context()
			before, err := db.Count(ctx, store.Conn())
			if err != nil {
				return err
			}
			var read int
			for _, path := range args {
				n, err := importFile(cmd, store, path, a.cfg.BatchSize)
				read += n
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				a.log.WithFields(logrus.Fields{"file": path, "triples": n}).Info("file imported")
			}
			after, err := db.Count(ctx, store.Conn())
			if err != nil {
				return err
			}
			formatTable(a.stderr, []string{"FILES", "READ", "NEW", "TOTAL"}, [][]string{{
				fmt.Sprint(len(args)), fmt.Sprint(read), fmt.Sprint(after - before), fmt.Sprint(after),
			}})
			return nil
		},
	}
}

// importFile streams one file into the store in batches.
func importFile(cmd *cobra.Command, store *db.Store, path string, batchSize int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := rdf.NewReader(f)
	batch := make([]graph.Triple, 0, batchSize)
	var n int
	for {
		t, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, err
		}
		batch = append(batch, t)
		n++
		if len(batch) == batchSize {
			if err := store.Insert(cmd.Context(), batch); err != nil {
				return n, err
			}
			batch = batch[:0]
		}
	}
	return n, store.Insert(cmd.Context(), batch)
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.nt|->",
		Short: "Write the graph as N-Triples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore(true)
			if err != nil {
				return err
			}
			defer closeStore()

			if args[0] == "-" {
				return a.exportTriples(cmd.Context(), store, a.stdout)
			}
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := a.exportTriples(cmd.Context(), store, f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func (a *app) exportTriples(ctx context.Context, store *db.Store, out io.Writer) error {
	w := rdf.NewWriter(out)
	if err := db.All(ctx, store.Conn(), w.Write); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	a.log.WithField("triples", w.Count()).Info("graph exported")
	return nil
}
