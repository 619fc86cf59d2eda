// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-agent/internal/agent"
	"github.com/pdiddy/scholar-agent/internal/discovery"
	"github.com/pdiddy/scholar-agent/internal/logging"
)

var papersCmd = &cobra.Command{
	Use:   "papers <query>",
	Short: "Find papers relevant to a research question",
	Long: `Papers runs the paper agent: the question becomes search queries, each
query retrieves candidates from the paper index, and every layer follows the
most relevant papers to their nearest neighbours. Papers scored above 0.5 by
the selector are reported, best first.

Use --out to save the full provenance tree as YAML (or JSON for .json paths).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPapers,
}

var datasetsCmd = &cobra.Command{
	Use:   "datasets <query>",
	Short: "Find datasets relevant to a research need",
	Long: `Datasets runs the dataset agent over the dataset index. Candidates are
ranked by semantic distance fused with popularity, then filtered by any
constraints given with --where, for example:

  scholar-agent datasets "question answering" --where "English text, more than 10k samples, MIT license"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDatasets,
}

func addAgentFlags(cmd *cobra.Command) {
	cmd.Flags().Int("layers", 0, "similarity expansion layers after the search stage (default from config)")
	cmd.Flags().Int("queries", 0, "maximum generated search queries (default from config)")
	cmd.Flags().Int("per-query", 0, "candidates retrieved per query (default from config)")
	cmd.Flags().Int("expand", 0, "maximum items expanded per layer after the first (default from config)")
	cmd.Flags().Int("threads", 0, "concurrent workers per layer (default from config)")
	cmd.Flags().StringSlice("answer", nil, "expected IDs recorded in the run file for evaluation")
	cmd.Flags().Bool("json", false, "print the run report as JSON")
	cmd.Flags().String("out", "", "write the run report to this file (.yaml or .json)")
	cmd.Flags().Bool("mock", false, "use the offline mock LLM")
}

// overridesFromFlags copies only the flags the user set. per-query is
// returned separately since papers and datasets map it to different budgets.
func overridesFromFlags(cmd *cobra.Command) (o discovery.Overrides, perQuery *int) {
	intFlag := func(name string) *int {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v, _ := cmd.Flags().GetInt(name)
		return &v
	}
	o.ExpandLayers = intFlag("layers")
	o.SearchQueries = intFlag("queries")
	o.ExpandPapers = intFlag("expand")
	o.ThreadsNum = intFlag("threads")
	o.Answer, _ = cmd.Flags().GetStringSlice("answer")
	return o, intFlag("per-query")
}

func runPapers(cmd *cobra.Command, args []string) error {
	o, perQuery := overridesFromFlags(cmd)
	o.SearchPapers = perQuery
	o.EndDate, _ = cmd.Flags().GetString("end-date")

	return runSearch(cmd, func(ctx context.Context, svc *discovery.Service) (*agent.Result, error) {
		return svc.SearchPapers(ctx, discovery.PaperRequest{Query: strings.Join(args, " "), Options: o})
	})
}

func runDatasets(cmd *cobra.Command, args []string) error {
	o, perQuery := overridesFromFlags(cmd)
	o.SearchDatasets = perQuery
	where, _ := cmd.Flags().GetString("where")

	return runSearch(cmd, func(ctx context.Context, svc *discovery.Service) (*agent.Result, error) {
		return svc.SearchDatasets(ctx, discovery.DatasetRequest{Query: strings.Join(args, " "), Where: where, Options: o})
	})
}

func runSearch(cmd *cobra.Command, search func(context.Context, *discovery.Service) (*agent.Result, error)) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	mock, _ := cmd.Flags().GetBool("mock")
	svc, err := discovery.Load(ctx, cfg, mock || forceMock, logging.L())
	if err != nil {
		return err
	}
	defer svc.Close()

	res, err := search(ctx, svc)
	if err != nil {
		return err
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := agent.WriteRunFile(out, res); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Run %s written to %s\n", res.RunID, out)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatResults(cmd.OutOrStdout(), res, jsonOutput)
}

func formatResults(w io.Writer, res *agent.Result, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Report())
	}

	fmt.Fprintf(w, "Queries: %s\n\n", strings.Join(res.Queries, " | "))
	if len(res.Results) == 0 {
		fmt.Fprintln(w, "No relevant results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-5s  %-18s  %-60s  %s\n", "Rank", "Score", "ID", "Title", "Found by")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for i, n := range res.Results {
		fmt.Fprintf(w, "%-4d  %-5.2f  %-18s  %-60s  %s\n",
			i+1, n.RelevanceScore, truncate(n.ExternalID, 18), truncate(n.Title, 60), truncate(n.DiscoverySource, 40))
	}

	st := res.Stats
	fmt.Fprintf(w, "\n%d results from %d candidates (%d nodes) in %s\n",
		len(res.Results), st.Touched, st.Nodes, st.Duration.Round(time.Millisecond))
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	addAgentFlags(papersCmd)
	papersCmd.Flags().String("end-date", "", "ignore papers published after this date (YYYYMMDD or YYYY-MM-DD, default today)")

	addAgentFlags(datasetsCmd)
	datasetsCmd.Flags().String("where", "", "dataset constraints in plain language")

	rootCmd.AddCommand(papersCmd)
	rootCmd.AddCommand(datasetsCmd)
}
