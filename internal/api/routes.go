package api

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pokescan/backend/internal/api/handlers"
	"github.com/pokescan/backend/internal/services"
)

func SetupRouter(provider *services.PokemonTCGService, scanService *services.ScanService, snapshotService *services.SnapshotService, trendService *services.TrendService) *gin.Engine {
	router := gin.Default()

	// CORS configuration - allow origins from environment or use defaults
	config := cors.DefaultConfig()
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		config.AllowOrigins = strings.Split(corsOrigins, ",")
	} else {
		config.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	config.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(config))

	// Initialize handlers
	cardHandler := handlers.NewCardHandler(provider, trendService)
	scanHandler := handlers.NewScanHandler(scanService, provider)
	collectionHandler := handlers.NewCollectionHandler(provider)
	marketHandler := handlers.NewMarketHandler(provider, trendService)
	snapshotHandler := handlers.NewSnapshotHandler(snapshotService)

	// API routes
	api := router.Group("/api")
	{
		cards := api.Group("/cards")
		{
			cards.GET("/search", cardHandler.SearchCards)
			cards.GET("/:id", cardHandler.GetCard)
			cards.GET("/:id/trend", cardHandler.GetCardTrend)
		}

		scan := api.Group("/scan")
		{
			scan.POST("", scanHandler.Identify)
			scan.POST("/index", scanHandler.IndexCard)
		}

		collection := api.Group("/collection")
		{
			collection.GET("", collectionHandler.GetCollection)
			collection.POST("", collectionHandler.AddToCollection)
			collection.DELETE("/:cardID", collectionHandler.RemoveFromCollection)
		}

		market := api.Group("/market")
		{
			market.GET("/trending", marketHandler.Trending)
		}

		snapshots := api.Group("/snapshots")
		{
			snapshots.GET("/status", snapshotHandler.GetStatus)
			snapshots.POST("/run", snapshotHandler.RunNow)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
