package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pokescan/backend/internal/database"
	"github.com/pokescan/backend/internal/phash"
	"github.com/pokescan/backend/internal/services"
)

// maxScanImageBytes caps uploaded scan images at 10MB.
const maxScanImageBytes = 10 << 20

type ScanHandler struct {
	scanService *services.ScanService
	provider    *services.PokemonTCGService
}

func NewScanHandler(scanService *services.ScanService, provider *services.PokemonTCGService) *ScanHandler {
	return &ScanHandler{
		scanService: scanService,
		provider:    provider,
	}
}

// Identify accepts a card photo and returns the closest indexed card with a
// confidence score. A below-threshold match returns confidence with a nil
// card; that is a normal response, not an error.
func (h *ScanHandler) Identify(c *gin.Context) {
	imageData, ok := h.readImage(c)
	if !ok {
		return
	}

	result, err := h.scanService.Identify(imageData)
	if err != nil {
		if errors.Is(err, phash.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// IndexCard attaches or replaces a card's fingerprint from an uploaded
// reference image. The card is pulled from the provider first if it is not
// cached locally yet.
func (h *ScanHandler) IndexCard(c *gin.Context) {
	cardID := c.PostForm("card_id")
	if cardID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card_id is required"})
		return
	}

	imageData, ok := h.readImage(c)
	if !ok {
		return
	}

	db := database.GetDB()
	if err := ensureCard(c, db, h.provider, cardID); err != nil {
		if errors.Is(err, services.ErrCardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "card lookup failed"})
		return
	}

	hash, err := h.scanService.IndexCard(cardID, imageData)
	if err != nil {
		if errors.Is(err, phash.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to index card"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"card_id": cardID,
		"phash":   hash,
	})
}

func (h *ScanHandler) readImage(c *gin.Context) ([]byte, bool) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image provided"})
		return nil, false
	}
	if fileHeader.Size > maxScanImageBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image too large"})
		return nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return nil, false
	}
	defer file.Close()

	imageData, err := io.ReadAll(io.LimitReader(file, maxScanImageBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return nil, false
	}
	return imageData, true
}
