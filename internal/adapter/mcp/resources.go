package mcp

import (
	"context"
	"encoding/json"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/StatForge/internal/domain/agent"
	"github.com/Strob0t/StatForge/internal/domain/stats"
)

const (
	uriTools    = "statforge://tools"
	uriRankable = "statforge://stats/rankable"
	uriSeason   = "statforge://season"
)

func (s *Server) registerResources() {
	add := func(uri, name, desc string, body func() (any, error)) {
		s.mcpServer.AddResource(
			mcplib.NewResource(uri, name,
				mcplib.WithResourceDescription(desc),
				mcplib.WithMIMEType("application/json"),
			),
			jsonResource(body),
		)
	}

	if s.deps.Tools != nil {
		add(uriTools, "Tool Catalogue", "Descriptors of every statistics tool", func() (any, error) {
			return s.deps.Tools.Descriptors(), nil
		})
	}
	add(uriRankable, "Rankable Stats", "Statistics accepted by the rankings tool", func() (any, error) {
		return stats.RankableStats(), nil
	})
	add(uriSeason, "Current Season", "Season assumed when a question names none", func() (any, error) {
		return map[string]int{"season": agent.CurrentSeason(time.Now())}, nil
	})
}

func jsonResource(body func() (any, error)) mcpserver.ResourceHandlerFunc {
	return func(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
		v, err := body()
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	}
}
