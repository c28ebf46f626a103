package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Papan07/EntertainHub/config"
	"github.com/Papan07/EntertainHub/db"
	"github.com/Papan07/EntertainHub/logger"
	api "github.com/Papan07/EntertainHub/routes"
	"github.com/Papan07/EntertainHub/services"
)

func main() {
	cfg := config.Load()
	log := logger.New("entertainhub-api", cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	store, err := db.NewService(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := store.Close(shutdownCtx); err != nil {
			log.WithError(err).Warn("failed to close database connection")
		}
	}()

	if err := store.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Fatal("failed to ensure indexes")
	}

	var catalog services.CatalogSource
	if cfg.UseSampleData {
		log.Warn("TMDB_API_KEY not set, serving sample catalog data")
		catalog = services.NewSampleSource()
	} else {
		catalog = services.NewTMDBClient(cfg.TMDBAPIKey)
	}
	catalog = services.NewFailSoftSource(catalog, log)

	search := services.NewAggregator(store, catalog, log)

	server := api.NewAPI(store, cfg, search, catalog, log)
	if err := server.Run(); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
