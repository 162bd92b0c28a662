package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/efebarandurmaz/coupler/internal/graph/neo4j"
	"github.com/efebarandurmaz/coupler/internal/report"
	"github.com/efebarandurmaz/coupler/internal/secrets"
	temporalmod "github.com/efebarandurmaz/coupler/internal/temporal"
	"github.com/efebarandurmaz/coupler/internal/vector"
	"github.com/efebarandurmaz/coupler/internal/vector/qdrant"
)

func (a *app) openGraphRepo(ctx context.Context) (*neo4j.Neo4jRepository, error) {
	password := a.secrets.Resolve(ctx, a.cfg.Graph.Password, secrets.SecretNeo4jPassword)
	return neo4j.NewNeo4j(ctx, a.cfg.Graph.URI, a.cfg.Graph.Username, password)
}

func (a *app) openVectorRepo(ctx context.Context) (*qdrant.QdrantRepository, error) {
	return qdrant.NewQdrant(ctx, a.cfg.Vector.Host, a.cfg.Vector.Port, a.cfg.Vector.Collection)
}

func newPublishCmd(a *app) *cobra.Command {
	var (
		inputPath string
		variant   string
		index     bool
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Store a parsed graph in Neo4j under its variant",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			res, _, err := a.analyzeFile(ctx, inputPath, resolveVariant(variant, inputPath), false)
			if err != nil {
				return err
			}

			repo, err := a.openGraphRepo(ctx)
			if err != nil {
				return err
			}
			defer repo.Close(context.Background())

			if err := repo.StoreGraph(ctx, res.Report.Variant, res.Graph); err != nil {
				return err
			}
			a.logger.Info("Graph published", "variant", res.Report.Variant,
				"nodes", len(res.Graph.Nodes), "edges", len(res.Graph.Edges))

			if index {
				return a.indexReport(ctx, res.Report)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "DOT file to publish (- for stdin)")
	cmd.Flags().StringVar(&variant, "variant", "", "Variant label (default: input file name)")
	cmd.Flags().BoolVar(&index, "index", false, "Also index the variant fingerprint in Qdrant")
	return cmd
}

func newDependentsCmd(a *app) *cobra.Command {
	var variant string
	cmd := &cobra.Command{
		Use:   "dependents NODE",
		Short: "List nodes of a published variant that depend on NODE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := a.openGraphRepo(ctx)
			if err != nil {
				return err
			}
			defer repo.Close(context.Background())

			nodes, err := repo.QueryDependents(ctx, variant, args[0])
			if err != nil {
				return err
			}
			for _, n := range nodes {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&variant, "variant", "", "Published variant to query")
	_ = cmd.MarkFlagRequired("variant")
	return cmd
}

func (a *app) indexReport(ctx context.Context, r *report.Report) error {
	repo, err := a.openVectorRepo(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := vector.NewIndexer(repo).IndexReport(ctx, r); err != nil {
		return err
	}
	a.logger.Info("Fingerprint indexed", "variant", r.Variant, "point", vector.PointID(r.Variant))
	return nil
}

func newIndexCmd(a *app) *cobra.Command {
	var (
		inputPath string
		variant   string
	)
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Store the metric fingerprint of a variant in Qdrant",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := a.analyzeFile(cmd.Context(), inputPath, resolveVariant(variant, inputPath), false)
			if err != nil {
				return err
			}
			return a.indexReport(cmd.Context(), res.Report)
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "DOT file to index (- for stdin)")
	cmd.Flags().StringVar(&variant, "variant", "", "Variant label (default: input file name)")
	return cmd
}

func newSimilarCmd(a *app) *cobra.Command {
	var (
		inputPath string
		variant   string
		topK      int
	)
	cmd := &cobra.Command{
		Use:   "similar",
		Short: "Find indexed variants with the closest metric fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			res, _, err := a.analyzeFile(ctx, inputPath, resolveVariant(variant, inputPath), false)
			if err != nil {
				return err
			}

			repo, err := a.openVectorRepo(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			matches, err := vector.NewIndexer(repo).Similar(ctx, res.Report, topK)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "VARIANT\tSCORE\tNODES\tEDGES\tCOUPLING")
			for _, m := range matches {
				fmt.Fprintf(tw, "%s\t%.4f\t%s\t%s\t%s\n", m.Metadata["variant"], m.Score,
					m.Metadata["node_count"], m.Metadata["edge_count"], m.Metadata["coupling_score"])
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "DOT file to match (- for stdin)")
	cmd.Flags().StringVar(&variant, "variant", "", "Variant label excluded from results (default: input file name)")
	cmd.Flags().IntVar(&topK, "top", 5, "Maximum number of matches")
	return cmd
}

func newSubmitCmd(a *app) *cobra.Command {
	var (
		inputPath  string
		variant    string
		simplified bool
		publish    bool
		wait       bool
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Run the analysis as a Temporal workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := a.readInput(inputPath)
			if err != nil {
				return err
			}
			v := resolveVariant(variant, inputPath)
			if v == "" {
				v = a.cfg.Analysis.DefaultVariant
			}

			apiKey := a.secrets.Resolve(ctx, "", secrets.SecretTemporalAPIKey)
			c, err := temporalclient.Dial(temporalmod.ClientOptions(
				a.cfg.Temporal.Host, a.cfg.Temporal.Namespace, apiKey, a.logger))
			if err != nil {
				return fmt.Errorf("temporal client: %w", err)
			}
			defer c.Close()

			run, err := c.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
				ID:        fmt.Sprintf("coupler-%s-%s", v, uuid.NewString()),
				TaskQueue: a.cfg.Temporal.TaskQueue,
			}, temporalmod.WorkflowName, temporalmod.AnalysisInput{
				Variant:           v,
				DOT:               string(data),
				IncludeSimplified: simplified,
				Publish:           publish,
			})
			if err != nil {
				return fmt.Errorf("start workflow: %w", err)
			}
			a.logger.Info("Workflow started", "workflow_id", run.GetID(), "run_id", run.GetRunID())
			if !wait {
				fmt.Fprintln(cmd.OutOrStdout(), run.GetID())
				return nil
			}

			var out temporalmod.AnalysisOutput
			if err := run.Get(ctx, &out); err != nil {
				return fmt.Errorf("workflow %s: %w", run.GetID(), err)
			}
			out.Report.PrintSummary(cmd.ErrOrStderr())
			return out.Report.Write("", report.FormatJSON, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "DOT file to submit (- for stdin)")
	cmd.Flags().StringVar(&variant, "variant", "", "Variant label (default: input file name)")
	cmd.Flags().BoolVar(&simplified, "simplified", true, "Include the simplified graph")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish the graph and fingerprint from the worker")
	cmd.Flags().BoolVar(&wait, "wait", true, "Wait for the workflow result and print the report")
	return cmd
}
