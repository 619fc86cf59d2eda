// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mcptool exposes the discovery agents as MCP tools.
package mcptool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/pdiddy/scholar-agent/internal/agent"
	"github.com/pdiddy/scholar-agent/internal/discovery"
	"github.com/pdiddy/scholar-agent/internal/filter"
)

// Server holds the MCP tool registry.
type Server struct {
	svc       discovery.Searcher
	log       *zap.Logger
	mcpServer *server.MCPServer
}

// NewServer registers the search tools over svc.
func NewServer(svc discovery.Searcher, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{svc: svc, log: log}
	s.mcpServer = server.NewMCPServer(
		"scholar-agent",
		version,
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

var budgetProperties = map[string]any{
	"expand_layers": map[string]any{
		"type":        "integer",
		"description": "Similarity expansion rounds after the search stage (default 2). 0 searches only.",
	},
	"search_queries": map[string]any{
		"type":        "integer",
		"description": "Maximum number of search strings generated from the query (default 5).",
	},
	"expand_papers": map[string]any{
		"type":        "integer",
		"description": "Maximum items expanded per layer after the first (default 20).",
	},
	"max_results": map[string]any{
		"type":        "integer",
		"description": "Return at most this many results, best first. Omit for all.",
	},
	"include_tree": map[string]any{
		"type":        "boolean",
		"description": "Include the provenance tree showing how each result was found.",
	},
}

func withBudgets(props map[string]any) map[string]any {
	for k, v := range budgetProperties {
		props[k] = v
	}
	return props
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "search_papers",
		Description: "Find research papers relevant to a natural-language question. The agent generates search queries, retrieves candidates from the paper corpus, follows similar papers, and keeps those an LLM judges relevant.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: withBudgets(map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What you are looking for, in plain language.",
				},
				"end_date": map[string]any{
					"type":        "string",
					"description": "Ignore papers published after this date (YYYYMMDD or YYYY-MM-DD). Defaults to today.",
				},
				"search_papers": map[string]any{
					"type":        "integer",
					"description": "Candidates retrieved per search query (default 10).",
				},
			}),
			Required: []string{"query"},
		},
	}, s.handleSearchPapers)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "search_datasets",
		Description: "Find datasets relevant to a natural-language request. Constraints such as size, modality, language, task, introduction year, or license can be given in 'where'.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: withBudgets(map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What the dataset should be for, in plain language.",
				},
				"where": map[string]any{
					"type":        "string",
					"description": "Optional constraints, e.g. 'English text with more than 10k samples, MIT license'.",
				},
				"constraints": map[string]any{
					"type":        "object",
					"description": "Structured constraints; overrides 'where'. Keys: min_samples, max_samples, modalities, languages, task, introduced_year, license_name.",
				},
				"search_datasets": map[string]any{
					"type":        "integer",
					"description": "Candidates retrieved per search query (default 10).",
				},
			}),
			Required: []string{"query"},
		},
	}, s.handleSearchDatasets)
}

type budgetParams struct {
	ExpandLayers  *int `json:"expand_layers"`
	SearchQueries *int `json:"search_queries"`
	ExpandPapers  *int `json:"expand_papers"`
	MaxResults    int  `json:"max_results"`
	IncludeTree   bool `json:"include_tree"`
}

func (b budgetParams) overrides() discovery.Overrides {
	return discovery.Overrides{
		ExpandLayers:  b.ExpandLayers,
		SearchQueries: b.SearchQueries,
		ExpandPapers:  b.ExpandPapers,
	}
}

func parseParams(args any, target any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

func (s *Server) handleSearchPapers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		budgetParams
		Query        string `json:"query"`
		EndDate      string `json:"end_date"`
		SearchPapers *int   `json:"search_papers"`
	}
	if err := parseParams(request.Params.Arguments, &params); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	o := params.overrides()
	o.EndDate = params.EndDate
	o.SearchPapers = params.SearchPapers

	res, err := s.svc.SearchPapers(ctx, discovery.PaperRequest{Query: params.Query, Options: o})
	return s.result(res, err, params.budgetParams)
}

func (s *Server) handleSearchDatasets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		budgetParams
		Query          string              `json:"query"`
		Where          string              `json:"where"`
		Constraints    *filter.Constraints `json:"constraints"`
		SearchDatasets *int                `json:"search_datasets"`
	}
	if err := parseParams(request.Params.Arguments, &params); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	o := params.overrides()
	o.SearchDatasets = params.SearchDatasets

	res, err := s.svc.SearchDatasets(ctx, discovery.DatasetRequest{
		Query:       params.Query,
		Where:       params.Where,
		Constraints: params.Constraints,
		Options:     o,
	})
	return s.result(res, err, params.budgetParams)
}

// result renders a run for the calling model. Agent failures are tool
// errors, not protocol errors.
func (s *Server) result(res *agent.Result, err error, p budgetParams) (*mcp.CallToolResult, error) {
	if err != nil {
		s.log.Warn("tool call failed", zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}

	rep := res.Report()
	if p.MaxResults > 0 && len(rep.Results) > p.MaxResults {
		rep.Results = rep.Results[:p.MaxResults]
	}
	if !p.IncludeTree {
		rep.Tree = nil
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// MCPServer returns the registry for other transports such as SSE.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves the tools on stdin and stdout until EOF.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
