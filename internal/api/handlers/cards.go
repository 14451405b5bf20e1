package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pokescan/backend/internal/database"
	"github.com/pokescan/backend/internal/models"
	"github.com/pokescan/backend/internal/services"
)

// detailTrendWindowDays is the history window returned with card details.
const detailTrendWindowDays = 90

type CardHandler struct {
	provider     *services.PokemonTCGService
	trendService *services.TrendService
}

func NewCardHandler(provider *services.PokemonTCGService, trendService *services.TrendService) *CardHandler {
	return &CardHandler{
		provider:     provider,
		trendService: trendService,
	}
}

// CardDetailResponse is the full card payload: metadata, today's provider
// prices, and the locally recorded price history.
type CardDetailResponse struct {
	Card   models.Card        `json:"card"`
	Types  []string           `json:"types"`
	Prices models.PriceFacets `json:"prices"`
	Trend  models.TrendResult `json:"trend"`
}

func (h *CardHandler) SearchCards(c *gin.Context) {
	query := c.Query("q")
	if len(query) < 2 {
		c.JSON(http.StatusOK, []models.Card{})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	quotes, err := h.provider.SearchCards(c.Request.Context(), query, limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "search failed"})
		return
	}

	cards := make([]models.Card, len(quotes))
	for i, q := range quotes {
		cards[i] = q.Card
	}

	// Cache results so they can be indexed or collected later.
	cacheCardsAsync(cards)

	c.JSON(http.StatusOK, cards)
}

func (h *CardHandler) GetCard(c *gin.Context) {
	id := c.Param("id")

	quote, err := h.provider.GetCard(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrCardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "card lookup failed"})
		return
	}

	upsertCard(database.GetDB(), quote.Card)

	trend, err := h.trendService.ComputeTrend(id, detailTrendWindowDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute price history"})
		return
	}

	c.JSON(http.StatusOK, CardDetailResponse{
		Card:   quote.Card,
		Types:  quote.Card.TypeList(),
		Prices: quote.Facets,
		Trend:  *trend,
	})
}

// GetCardTrend returns the trend over an arbitrary day window.
func (h *CardHandler) GetCardTrend(c *gin.Context) {
	id := c.Param("id")

	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(services.DefaultTrendWindowDays)))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return
	}

	trend, err := h.trendService.ComputeTrend(id, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute trend"})
		return
	}

	c.JSON(http.StatusOK, trend)
}

// upsertCard inserts the card if absent, or refreshes its display metadata.
// The stored fingerprint is never touched here.
func upsertCard(db *gorm.DB, card models.Card) {
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "card_number", "set_code", "set_name", "rarity",
			"types", "image_url", "image_url_large", "updated_at",
		}),
	}).Create(&card).Error
	if err != nil {
		log.Printf("Warning: failed to cache card %s: %v", card.ID, err)
	}
}

// cacheCardsAsync saves cards to the database asynchronously so they can be
// referenced by later index/collection requests without blocking the
// response.
func cacheCardsAsync(cards []models.Card) {
	if len(cards) == 0 {
		return
	}
	cardsToCache := make([]models.Card, len(cards))
	copy(cardsToCache, cards)
	go func(cards []models.Card) {
		db := database.GetDB()
		for i := range cards {
			upsertCard(db, cards[i])
		}
	}(cardsToCache)
}

// ensureCard makes sure a card row exists locally, fetching it from the
// provider when missing.
func ensureCard(c *gin.Context, db *gorm.DB, provider *services.PokemonTCGService, cardID string) error {
	var existing models.Card
	if err := db.Select("id").First(&existing, "id = ?", cardID).Error; err == nil {
		return nil
	}

	quote, err := provider.GetCard(c.Request.Context(), cardID)
	if err != nil {
		return err
	}
	upsertCard(db, quote.Card)
	return nil
}
