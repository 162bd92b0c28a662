package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/coupler/internal/snapshot"
)

func newSnapshotCmd(a *app) *cobra.Command {
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save, list and diff stored analysis reports",
	}

	var (
		inputPath   string
		variant     string
		tag         string
		description string
		simplified  bool
	)
	saveCmd := &cobra.Command{
		Use:   "save",
		Short: "Analyze a graph and store the report as a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapshot.NewStore(a.cfg.Snapshot.Dir)
			if err != nil {
				return err
			}
			res, data, err := a.analyzeFile(cmd.Context(), inputPath, resolveVariant(variant, inputPath), simplified)
			if err != nil {
				return err
			}
			snap := snapshot.NewSnapshot(res.Report, data, inputPath)
			snap.Tag = tag
			snap.Description = description
			if err := store.Save(snap, data); err != nil {
				return err
			}
			a.logger.Info("Snapshot saved", "id", snap.ID, "variant", snap.Variant, "dir", a.cfg.Snapshot.Dir)
			fmt.Fprintln(cmd.OutOrStdout(), snap.ID)
			return nil
		},
	}
	saveCmd.Flags().StringVarP(&inputPath, "input", "i", "-", "DOT file to analyze (- for stdin)")
	saveCmd.Flags().StringVar(&variant, "variant", "", "Variant label (default: input file name)")
	saveCmd.Flags().StringVar(&tag, "tag", "", "Tag for the snapshot")
	saveCmd.Flags().StringVar(&description, "description", "", "Free-form description")
	saveCmd.Flags().BoolVar(&simplified, "simplified", true, "Store the simplified graph for category diffs")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapshot.NewStore(a.cfg.Snapshot.Dir)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTAG\tVARIANT\tCREATED\tNODES\tEDGES\tCOUPLING")
			for _, s := range store.List() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%.4f\n",
					s.ID, s.Tag, s.Variant, s.CreatedAt.Format(time.RFC3339),
					s.NodeCount, s.EdgeCount, s.CouplingScore)
			}
			return tw.Flush()
		},
	}

	var diffJSON bool
	diffCmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Compare two snapshots by id, tag or variant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapshot.NewStore(a.cfg.Snapshot.Dir)
			if err != nil {
				return err
			}
			oldSnap, err := store.Resolve(args[0])
			if err != nil {
				return err
			}
			newSnap, err := store.Resolve(args[1])
			if err != nil {
				return err
			}
			d := snapshot.Diff(oldSnap.Report, newSnap.Report)
			if diffJSON {
				data, err := json.MarshalIndent(d, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), snapshot.FormatDiff(d))
			return nil
		},
	}
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "Output the diff as JSON")

	tagCmd := &cobra.Command{
		Use:   "tag ID TAG",
		Short: "Set the tag of a snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapshot.NewStore(a.cfg.Snapshot.Dir)
			if err != nil {
				return err
			}
			return store.Tag(args[0], args[1])
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapshot.NewStore(a.cfg.Snapshot.Dir)
			if err != nil {
				return err
			}
			return store.Delete(args[0])
		},
	}

	snapshotCmd.AddCommand(saveCmd, listCmd, diffCmd, tagCmd, deleteCmd)
	return snapshotCmd
}

// resolveVariant prefers an explicit label, then the input file name.
// An empty result lets the configured default apply.
func resolveVariant(flag, path string) string {
	if flag != "" {
		return flag
	}
	return variantFromPath(path)
}
