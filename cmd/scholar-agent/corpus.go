// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-agent/internal/corpus"
	"github.com/pdiddy/scholar-agent/internal/harvest"
	"github.com/pdiddy/scholar-agent/internal/logging"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the local corpus of papers and datasets",
	Long: `Corpus manages the SQLite database the semantic indexes are built from.
Import paper or dataset dumps (JSON array, JSONL, or YAML), inspect records,
and print counts.`,
}

var corpusImportCmd = &cobra.Command{
	Use:       "import papers|datasets <file>...",
	Short:     "Import paper or dataset records",
	Long:      `Import upserts records by ID. Records without an ID are skipped and counted.`,
	Args:      cobra.MinimumNArgs(2),
	ValidArgs: []string{"papers", "datasets"},
	RunE:      runCorpusImport,
}

func runCorpusImport(cmd *cobra.Command, args []string) error {
	kind, files := args[0], args[1:]

	store, err := corpus.Open(cfg.Corpus.DBPath, logging.L().Named("corpus"))
	if err != nil {
		return err
	}
	defer store.Close()

	var total corpus.ImportSummary
	for _, f := range files {
		var sum corpus.ImportSummary
		switch kind {
		case "papers":
			sum, err = store.ImportPapersFile(cmd.Context(), f)
		case "datasets":
			sum, err = store.ImportDatasetsFile(cmd.Context(), f)
		default:
			return fmt.Errorf("unknown record kind %q: use papers or datasets", kind)
		}
		if err != nil {
			return err
		}
		total.Inserted += sum.Inserted
		total.Updated += sum.Updated
		total.Skipped += sum.Skipped
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d %s read: %d inserted, %d updated, %d skipped\n",
		total.Total(), kind, total.Inserted, total.Updated, total.Skipped)
	fmt.Fprintln(cmd.OutOrStdout(), `Run "scholar-agent index build" to refresh the semantic indexes.`)
	return nil
}

var corpusHarvestCmd = &cobra.Command{
	Use:   "harvest <arxiv query>",
	Short: "Fetch paper metadata from arXiv into the corpus",
	Long: `Harvest pages through the arXiv API, newest submissions first, and
upserts the papers. The query uses arXiv search syntax, for example
"cat:cs.CL" or "all:retrieval AND cat:cs.IR"; bare words match all fields.
arXiv category terms are stored as the paper's tasks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxPapers, _ := cmd.Flags().GetInt("max")
		log := logging.L()

		store, err := corpus.Open(cfg.Corpus.DBPath, log.Named("corpus"))
		if err != nil {
			return err
		}
		defer store.Close()

		papers, err := harvest.NewArxiv(log.Named("arxiv")).Fetch(cmd.Context(), harvest.Query{
			Search: strings.Join(args, " "),
			Max:    maxPapers,
		})
		if len(papers) > 0 {
			sum, upsertErr := store.UpsertPapers(cmd.Context(), papers)
			if upsertErr != nil {
				return upsertErr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d papers harvested: %d inserted, %d updated\n",
				len(papers), sum.Inserted, sum.Updated)
		}
		return err
	},
}

var corpusStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print corpus counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := corpus.Open(cfg.Corpus.DBPath, logging.L().Named("corpus"))
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(st)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Database:  %s\n", cfg.Corpus.DBPath)
		fmt.Fprintf(w, "Papers:    %d\n", st.Papers)
		fmt.Fprintf(w, "Datasets:  %d\n", st.Datasets)
		fmt.Fprintf(w, "Full-text: %v\n", st.FullText)
		return nil
	},
}

var corpusSearchCmd = &cobra.Command{
	Use:   "search <keywords>",
	Short: "Keyword search over stored papers",
	Long: `Search matches every keyword against paper titles and abstracts using the
full-text index when SQLite provides FTS5. It does not use the LLM or the
semantic index.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := corpus.Open(cfg.Corpus.DBPath, logging.L().Named("corpus"))
		if err != nil {
			return err
		}
		defer store.Close()

		papers, err := store.SearchPapers(cmd.Context(), strings.Join(args, " "), limit)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(papers) == 0 {
			fmt.Fprintln(w, "No papers found.")
			return nil
		}
		for _, p := range papers {
			fmt.Fprintf(w, "%-18s  %-10s  %s\n", truncate(p.ExternalID, 18), p.Date, truncate(p.Title, 80))
		}
		return nil
	},
}

var corpusShowCmd = &cobra.Command{
	Use:       "show paper|dataset <id>",
	Short:     "Print one stored record as YAML",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"paper", "dataset"},
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := corpus.Open(cfg.Corpus.DBPath, logging.L().Named("corpus"))
		if err != nil {
			return err
		}
		defer store.Close()

		var rec any
		switch args[0] {
		case "paper":
			rec, err = store.PaperByExternalID(cmd.Context(), args[1])
		case "dataset":
			rec, err = store.DatasetByID(cmd.Context(), args[1])
		default:
			return fmt.Errorf("unknown record kind %q: use paper or dataset", args[0])
		}
		if err != nil {
			return fmt.Errorf("%s %s: %w", args[0], args[1], err)
		}
		return writeYAML(cmd.OutOrStdout(), rec)
	},
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func init() {
	corpusStatsCmd.Flags().Bool("json", false, "output as JSON")
	corpusSearchCmd.Flags().Int("limit", 20, "maximum number of papers")
	corpusHarvestCmd.Flags().Int("max", 500, "maximum number of papers to fetch")

	corpusCmd.AddCommand(corpusImportCmd)
	corpusCmd.AddCommand(corpusHarvestCmd)
	corpusCmd.AddCommand(corpusStatsCmd)
	corpusCmd.AddCommand(corpusSearchCmd)
	corpusCmd.AddCommand(corpusShowCmd)
	rootCmd.AddCommand(corpusCmd)
}
