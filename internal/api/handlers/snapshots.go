package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pokescan/backend/internal/services"
)

type SnapshotHandler struct {
	snapshotService *services.SnapshotService
}

func NewSnapshotHandler(snapshotService *services.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{
		snapshotService: snapshotService,
	}
}

// GetStatus returns the snapshot worker's configuration and last summary.
func (h *SnapshotHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.snapshotService.GetStatus())
}

// RunNow triggers a snapshot batch outside the daily schedule. The batch
// runs in the background; progress is visible via GetStatus.
func (h *SnapshotHandler) RunNow(c *gin.Context) {
	go func() {
		summary, err := h.snapshotService.RunDailySnapshot(context.Background())
		if err != nil {
			log.Printf("Manual snapshot run failed: %v", err)
			return
		}
		log.Printf("Manual snapshot run: updated %d, failed %d", summary.Updated, summary.Failed)
	}()

	c.JSON(http.StatusAccepted, gin.H{"started": true})
}
