package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/pokescan/backend/internal/models"
	"github.com/pokescan/backend/internal/services"
)

const (
	trendingLimit          = 30
	trendingSortWindowDays = 7
)

type MarketHandler struct {
	provider     *services.PokemonTCGService
	trendService *services.TrendService
}

func NewMarketHandler(provider *services.PokemonTCGService, trendService *services.TrendService) *MarketHandler {
	return &MarketHandler{
		provider:     provider,
		trendService: trendService,
	}
}

// TrendingCard is one entry in the trending feed.
type TrendingCard struct {
	Card   models.Card        `json:"card"`
	Prices models.PriceFacets `json:"prices"`
	Trend  models.TrendResult `json:"trend"`
}

// Trending returns recent high-rarity cards with their 30-day trends,
// biggest 7-day gainers first.
func (h *MarketHandler) Trending(c *gin.Context) {
	quotes, err := h.provider.GetTrendingCards(c.Request.Context(), trendingLimit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch market data"})
		return
	}

	results := make([]TrendingCard, 0, len(quotes))
	sortKeys := make(map[string]float64, len(quotes))
	for _, quote := range quotes {
		trend, err := h.trendService.ComputeTrend(quote.Card.ID, services.DefaultTrendWindowDays)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute trends"})
			return
		}

		weekTrend, err := h.trendService.ComputeTrend(quote.Card.ID, trendingSortWindowDays)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute trends"})
			return
		}
		sortKeys[quote.Card.ID] = weekTrend.Percent

		results = append(results, TrendingCard{
			Card:   quote.Card,
			Prices: quote.Facets,
			Trend:  *trend,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return sortKeys[results[i].Card.ID] > sortKeys[results[j].Card.ID]
	})

	c.JSON(http.StatusOK, results)
}
