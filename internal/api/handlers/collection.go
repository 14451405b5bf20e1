package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pokescan/backend/internal/database"
	"github.com/pokescan/backend/internal/models"
	"github.com/pokescan/backend/internal/services"
)

type CollectionHandler struct {
	provider *services.PokemonTCGService
}

func NewCollectionHandler(provider *services.PokemonTCGService) *CollectionHandler {
	return &CollectionHandler{
		provider: provider,
	}
}

func (h *CollectionHandler) GetCollection(c *gin.Context) {
	db := database.GetDB()

	var items []models.CollectionItem
	if err := db.Preload("Card").Order("added_at DESC").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load collection"})
		return
	}

	c.JSON(http.StatusOK, items)
}

// AddToCollection adds a card to the collection. Adding an existing
// (card, condition) pair accumulates quantity.
func (h *CollectionHandler) AddToCollection(c *gin.Context) {
	var req models.AddToCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	if req.Condition == "" {
		req.Condition = models.ConditionNearMint
	}
	if !req.Condition.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid condition"})
		return
	}

	db := database.GetDB()
	if err := ensureCard(c, db, h.provider, req.CardID); err != nil {
		if errors.Is(err, services.ErrCardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "card lookup failed"})
		return
	}

	item := models.CollectionItem{
		CardID:    req.CardID,
		Quantity:  req.Quantity,
		Condition: req.Condition,
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "card_id"}, {Name: "condition"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("quantity + excluded.quantity"),
		}),
	}).Create(&item).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add to collection"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CollectionHandler) RemoveFromCollection(c *gin.Context) {
	cardID := c.Param("cardID")

	db := database.GetDB()
	if err := db.Where("card_id = ?", cardID).Delete(&models.CollectionItem{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove from collection"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
