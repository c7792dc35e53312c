package service

import (
	"github.com/Strob0t/StatForge/internal/config"
	"github.com/Strob0t/StatForge/internal/port/database"
	"github.com/Strob0t/StatForge/internal/port/retrieval"
)

// NewDefaultToolRegistry builds the six standard tools in prompt order.
// statsSearch and newsSearch may be nil when no retrieval backend is configured.
func NewDefaultToolRegistry(store database.ReadOnlyStore, statsSearch, newsSearch retrieval.Searcher, cfg config.Agent) *ToolRegistry {
	return NewToolRegistry(
		NewSQLQueryTool(store),
		NewPlayerStatsTool(store, cfg.RecentGamesLimit),
		NewCalculatorTool(),
		NewSemanticSearchTool(statsSearch),
		NewRankingsTool(store),
		NewNewsSearchTool(newsSearch),
	)
}
