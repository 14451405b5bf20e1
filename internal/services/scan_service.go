package services

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/pokescan/backend/internal/match"
	"github.com/pokescan/backend/internal/metrics"
	"github.com/pokescan/backend/internal/models"
	"github.com/pokescan/backend/internal/phash"
)

// ScanService identifies cards from photos: it reduces an image to a
// fingerprint, ranks every indexed card by Hamming distance, and applies
// the confidence threshold.
type ScanService struct {
	db     *gorm.DB
	images *ImageStorageService
}

// ScanResult is the outcome of an identification attempt. Card is nil when
// confidence fell below the accept threshold or nothing is indexed; that is
// a valid "no match" result, not an error.
type ScanResult struct {
	Confidence float64      `json:"confidence"`
	Card       *models.Card `json:"card"`
}

func NewScanService(db *gorm.DB, images *ImageStorageService) *ScanService {
	return &ScanService{
		db:     db,
		images: images,
	}
}

// Identify matches the given image against all indexed fingerprints.
func (s *ScanService) Identify(imageData []byte) (*ScanResult, error) {
	start := time.Now()

	fp, err := phash.FromImage(bytes.NewReader(imageData))
	if err != nil {
		metrics.ScanRequestsTotal.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	candidates, err := s.loadCandidates()
	if err != nil {
		metrics.ScanRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load fingerprint index: %w", err)
	}

	index := match.NewLinearIndex(candidates)
	metrics.IndexedCards.Set(float64(index.Len()))

	decision := match.Decide(index.Nearest(fp))
	metrics.ScanDuration.Observe(time.Since(start).Seconds())
	metrics.ScanConfidence.Observe(decision.Confidence)

	result := &ScanResult{Confidence: decision.Confidence}
	if !decision.Accepted {
		metrics.ScanRequestsTotal.WithLabelValues("no_match").Inc()
		return result, nil
	}

	var card models.Card
	if err := s.db.First(&card, "id = ?", decision.CardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Index row vanished between scan and lookup; report no match.
			metrics.ScanRequestsTotal.WithLabelValues("no_match").Inc()
			return &ScanResult{Confidence: 0}, nil
		}
		metrics.ScanRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load matched card: %w", err)
	}

	metrics.ScanRequestsTotal.WithLabelValues("matched").Inc()
	log.Printf("Scan: matched card %s (%s) at distance %d, confidence %.2f",
		card.ID, card.Name, decision.Distance, decision.Confidence)

	result.Card = &card
	return result, nil
}

// IndexCard computes and stores the fingerprint for an existing card,
// replacing any previous one, and archives the source image.
func (s *ScanService) IndexCard(cardID string, imageData []byte) (string, error) {
	fp, err := phash.FromImage(bytes.NewReader(imageData))
	if err != nil {
		return "", err
	}

	result := s.db.Model(&models.Card{}).Where("id = ?", cardID).Update("phash", fp.Hex())
	if result.Error != nil {
		return "", fmt.Errorf("failed to store fingerprint: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", gorm.ErrRecordNotFound
	}

	if s.images != nil {
		if _, err := s.images.SaveScan(imageData); err != nil {
			// The fingerprint is already stored; losing the archive copy
			// is not worth failing the request over.
			log.Printf("Scan: failed to archive image for card %s: %v", cardID, err)
		}
	}

	log.Printf("Scan: indexed fingerprint %s for card %s", fp.Hex(), cardID)
	return fp.Hex(), nil
}

// loadCandidates scans all (card, fingerprint) pairs with a fingerprint
// present. The candidate set is read-only per call; nothing is shared with
// concurrent scans.
func (s *ScanService) loadCandidates() ([]match.Candidate, error) {
	var rows []models.Card
	if err := s.db.Select("id", "phash").Where("phash <> ''").Find(&rows).Error; err != nil {
		return nil, err
	}

	candidates := make([]match.Candidate, len(rows))
	for i, row := range rows {
		candidates[i] = match.Candidate{CardID: row.ID, Hash: row.PHash}
	}
	return candidates, nil
}
