// Package mcp exposes the tag-language parser and the document graph as
// Model Context Protocol tools over stdio.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"scribl/internal/config"
	"scribl/internal/graphdb"
	"scribl/internal/store"
)

// GraphLoader supplies the graph the query tools read.
type GraphLoader interface {
	LoadGraph(ctx context.Context) (*graphdb.DB, error)
}

type Searcher interface {
	Search(ctx context.Context, query, label, entityType string) ([]store.SearchResult, error)
}

type Server struct {
	schema   *config.Schema
	graph    GraphLoader
	searcher Searcher
	mcp      *sdk.Server
}

// NewServer registers the tools. A nil searcher leaves search_entities
// reporting an error.
func NewServer(schema *config.Schema, graph GraphLoader, searcher Searcher, version string) *Server {
	s := &Server{
		schema:   schema,
		graph:    graph,
		searcher: searcher,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "scribl",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
