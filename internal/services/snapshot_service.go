package services

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pokescan/backend/internal/metrics"
	"github.com/pokescan/backend/internal/models"
)

const (
	// trackedCardLimit caps how many cards a daily run snapshots.
	trackedCardLimit = 500

	// defaultPace is the inter-call delay between provider lookups. At
	// 100ms, 500 cards take ~50 seconds, well inside the API's daily
	// request budget.
	defaultPace = 100 * time.Millisecond

	// perCardTimeout bounds a single provider lookup so one hanging call
	// cannot stall the rest of the batch.
	perCardTimeout = 30 * time.Second

	snapshotCheckInterval = 15 * time.Minute
)

// CardQuoteFetcher is the provider dependency of the snapshot worker.
type CardQuoteFetcher interface {
	GetCard(ctx context.Context, id string) (*CardQuote, error)
}

// SnapshotSummary reports the outcome of one daily batch. Per-card failures
// are counted, never propagated: a provider outage for one card must not
// cost the rest of the day's history.
type SnapshotSummary struct {
	Date    string        `json:"date"`
	Tracked int           `json:"tracked"`
	Updated int           `json:"updated"`
	Failed  int           `json:"failed"`
	Took    time.Duration `json:"-"`
}

// SnapshotStatus is the worker state exposed over the API.
type SnapshotStatus struct {
	SnapshotHour int             `json:"snapshot_hour"`
	LastRunTime  time.Time       `json:"last_run_time"`
	LastSummary  SnapshotSummary `json:"last_summary"`
	Running      bool            `json:"running"`
}

// SnapshotService appends one price snapshot per tracked card per day.
// Rows are keyed by (card, date); re-recording a day replaces the previous
// observation, so duplicate runs are harmless.
type SnapshotService struct {
	db       *gorm.DB
	provider CardQuoteFetcher
	pace     *rate.Limiter

	snapshotHour  int // hour of day after which the daily run fires (0-23)
	checkInterval time.Duration

	mu          sync.RWMutex
	running     bool
	lastRunTime time.Time
	lastSummary SnapshotSummary
}

// NewSnapshotService creates the worker. snapshotHour outside 0-23 falls
// back to 6 (the historical 06:00 run); paceMS <= 0 falls back to 100ms.
func NewSnapshotService(db *gorm.DB, provider CardQuoteFetcher, snapshotHour int, paceMS int) *SnapshotService {
	if snapshotHour < 0 || snapshotHour > 23 {
		snapshotHour = 6
	}
	pace := defaultPace
	if paceMS > 0 {
		pace = time.Duration(paceMS) * time.Millisecond
	}

	return &SnapshotService{
		db:            db,
		provider:      provider,
		pace:          rate.NewLimiter(rate.Every(pace), 1),
		snapshotHour:  snapshotHour,
		checkInterval: snapshotCheckInterval,
	}
}

// Start begins the background snapshot worker. It checks every 15 minutes
// whether today's batch has run yet and fires it once the configured hour
// has passed.
func (s *SnapshotService) Start(ctx context.Context) {
	log.Printf("Snapshot worker started: daily price snapshots at/after %02d:00", s.snapshotHour)

	s.checkAndRun(ctx)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Snapshot worker stopping...")
			return
		case <-ticker.C:
			s.checkAndRun(ctx)
		}
	}
}

func (s *SnapshotService) checkAndRun(ctx context.Context) {
	now := time.Now()
	if now.Hour() < s.snapshotHour {
		return
	}
	if s.hasSnapshotForDate(now) {
		return
	}

	if _, err := s.RunDailySnapshot(ctx); err != nil {
		log.Printf("Snapshot worker: daily run failed: %v", err)
	}
}

// hasSnapshotForDate checks whether any snapshot row exists for the given
// calendar day. Survives restarts, unlike in-memory bookkeeping.
func (s *SnapshotService) hasSnapshotForDate(date time.Time) bool {
	start := midnight(date)
	end := start.Add(24 * time.Hour)

	var count int64
	s.db.Model(&models.PriceSnapshot{}).
		Where("snapshot_date >= ? AND snapshot_date < ?", start, end).
		Count(&count)
	return count > 0
}

// RunDailySnapshot fetches current prices for every tracked card and
// records one snapshot per card for today. Cards are processed one at a
// time with the pacing delay between provider calls; a failed lookup is
// counted and skipped, never retried within the run.
func (s *SnapshotService) RunDailySnapshot(ctx context.Context) (SnapshotSummary, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Println("Snapshot worker: run already in progress, skipping")
		return SnapshotSummary{}, nil
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	today := midnight(start)
	summary := SnapshotSummary{Date: today.Format("2006-01-02")}

	cardIDs, err := s.trackedCardIDs()
	if err != nil {
		return summary, err
	}
	summary.Tracked = len(cardIDs)
	metrics.TrackedCards.Set(float64(len(cardIDs)))

	var totalCards int64
	if err := s.db.Model(&models.Card{}).Count(&totalCards).Error; err == nil {
		metrics.CardDatabaseSize.Set(float64(totalCards))
	}

	if len(cardIDs) == 0 {
		log.Println("Snapshot worker: no cards to track")
		return summary, nil
	}

	log.Printf("Snapshot worker: recording snapshots for %d cards", len(cardIDs))

	for _, id := range cardIDs {
		if err := s.pace.Wait(ctx); err != nil {
			// Shutdown mid-batch; report what completed.
			summary.Took = time.Since(start)
			s.finishRun(summary)
			return summary, err
		}

		if err := s.snapshotCard(ctx, id, today); err != nil {
			log.Printf("Snapshot worker: failed for card %s: %v", id, err)
			summary.Failed++
			metrics.SnapshotFailuresTotal.Inc()
			continue
		}
		summary.Updated++
		metrics.SnapshotUpdatesTotal.Inc()
	}

	summary.Took = time.Since(start)
	metrics.SnapshotBatchDuration.Observe(summary.Took.Seconds())
	s.finishRun(summary)

	log.Printf("Snapshot worker: done in %v. Updated: %d, Failed: %d",
		summary.Took.Round(time.Millisecond), summary.Updated, summary.Failed)
	return summary, nil
}

func (s *SnapshotService) snapshotCard(ctx context.Context, cardID string, date time.Time) error {
	lookupCtx, cancel := context.WithTimeout(ctx, perCardTimeout)
	defer cancel()

	quote, err := s.provider.GetCard(lookupCtx, cardID)
	if err != nil {
		return err
	}

	return s.RecordSnapshot(cardID, date, quote.Facets)
}

// RecordSnapshot upserts the snapshot row for (cardID, date): insert if
// absent, otherwise overwrite the facet values wholesale. The date is
// normalized to midnight so all writes for a day hit the same row.
func (s *SnapshotService) RecordSnapshot(cardID string, date time.Time, facets models.PriceFacets) error {
	snapshot := models.PriceSnapshot{
		CardID:       cardID,
		SnapshotDate: midnight(date),
		PriceFacets:  facets,
	}

	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "card_id"}, {Name: "snapshot_date"}},
		DoUpdates: clause.AssignmentColumns(models.FacetColumns()),
	}).Create(&snapshot).Error
}

// trackedCardIDs returns collection cards first, then the most recently
// observed cards, capped at trackedCardLimit.
func (s *SnapshotService) trackedCardIDs() ([]string, error) {
	var collectionIDs []string
	err := s.db.Model(&models.CollectionItem{}).
		Distinct("card_id").
		Order("card_id ASC").
		Pluck("card_id", &collectionIDs).Error
	if err != nil {
		return nil, err
	}

	if len(collectionIDs) >= trackedCardLimit {
		return collectionIDs[:trackedCardLimit], nil
	}

	var recentIDs []string
	query := s.db.Model(&models.Card{}).
		Order("created_at DESC").
		Limit(trackedCardLimit - len(collectionIDs))
	if len(collectionIDs) > 0 {
		query = query.Where("id NOT IN ?", collectionIDs)
	}
	if err := query.Pluck("id", &recentIDs).Error; err != nil {
		return nil, err
	}

	return append(collectionIDs, recentIDs...), nil
}

func (s *SnapshotService) finishRun(summary SnapshotSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRunTime = time.Now()
	s.lastSummary = summary
}

// GetStatus returns the worker state for the status endpoint.
func (s *SnapshotService) GetStatus() SnapshotStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SnapshotStatus{
		SnapshotHour: s.snapshotHour,
		LastRunTime:  s.lastRunTime,
		LastSummary:  s.lastSummary,
		Running:      s.running,
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
