// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/scholar-agent/internal/corpus"
	"github.com/pdiddy/scholar-agent/internal/discovery"
	"github.com/pdiddy/scholar-agent/internal/embedding"
	"github.com/pdiddy/scholar-agent/internal/logging"
	"github.com/pdiddy/scholar-agent/internal/mcptool"
	"github.com/pdiddy/scholar-agent/internal/server"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the semantic indexes",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed the corpus and write the index snapshots",
	Long: `Build embeds every stored paper and dataset and saves the vectors to the
snapshot files named in the corpus configuration. Records whose text has not
changed since the last build reuse their cached vectors.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.L()
		store, err := corpus.Open(cfg.Corpus.DBPath, log.Named("corpus"))
		if err != nil {
			return err
		}
		defer store.Close()

		p, err := embedding.New(cfg.Embedding)
		if err != nil {
			return err
		}
		if op, ok := p.(*embedding.OllamaProvider); ok {
			if err := op.IsAvailable(cmd.Context()); err != nil {
				return fmt.Errorf("embedding model unavailable: %w", err)
			}
		}

		ix, err := discovery.BuildIndexes(cmd.Context(), store, p, cfg.Corpus, log.Named("index"))
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Papers indexed:   %d (%s)\n", ix.Papers.Len(), cfg.Corpus.PapersIndex)
		fmt.Fprintf(w, "Datasets indexed: %d (%s)\n", ix.Datasets.Len(), cfg.Corpus.DatasetsIndex)
		fmt.Fprintf(w, "Model:            %s (%d dimensions)\n", p.ModelName(), p.Dimensions())
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the discovery agents over HTTP",
	Long: `Serve loads the corpus and indexes, then answers
POST /api/v1/search/papers and POST /api/v1/search/datasets. With --mcp the
same agents are also exposed as MCP tools at /mcp/sse.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log := logging.L()
		mock, _ := cmd.Flags().GetBool("mock")
		svc, err := discovery.Load(ctx, cfg, mock || forceMock, log)
		if err != nil {
			return err
		}
		defer svc.Close()

		addr := cfg.Server.Addr
		if a, _ := cmd.Flags().GetString("addr"); a != "" {
			addr = a
		}
		srv := server.New(svc, addr, cfg.Server.RequestTimeout, log.Named("http"))
		if withMCP, _ := cmd.Flags().GetBool("mcp"); withMCP {
			srv.AddMCPServer(mcptool.NewServer(svc, version, log.Named("mcp")).MCPServer())
		}
		return srv.Serve(ctx)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the discovery agents as MCP tools on stdio",
	Long: `MCP speaks the Model Context Protocol on stdin and stdout, exposing the
search_papers and search_datasets tools. Logs go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.L()
		mock, _ := cmd.Flags().GetBool("mock")
		svc, err := discovery.Load(cmd.Context(), cfg, mock || forceMock, log)
		if err != nil {
			return err
		}
		defer svc.Close()

		log.Info("MCP stdio server starting", zap.String("version", version))
		return mcptool.NewServer(svc, version, log.Named("mcp")).ServeStdio()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of scholar-agent",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "scholar-agent %s\n", version)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().Bool("mcp", false, "also serve MCP tools over SSE at /mcp")
	serveCmd.Flags().Bool("mock", false, "use the offline mock LLM")
	mcpCmd.Flags().Bool("mock", false, "use the offline mock LLM")

	indexCmd.AddCommand(indexBuildCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}
