package main

import (
	"context"
	"os"
	"time"

	"finn-scraper/config"
	"finn-scraper/geocode"
	"finn-scraper/scraper/finn"
	"finn-scraper/server"
	"finn-scraper/services"
	"finn-scraper/storage"
	"finn-scraper/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()
	ctx := context.Background()

	logger.Info("=== Bolig Scraping Pipeline starting ===")
	logger.Info("Config — pages: %d | concurrency: %d | rate: %dms | fetch: %s",
		cfg.MaxPages, cfg.MaxConcurrency, cfg.RateLimitMs, cfg.FetchMode)

	rules, err := services.LoadRules(cfg.RulesPath)
	if err != nil {
		logger.Error("Failed to load rules: %v", err)
		os.Exit(1)
	}

	fetcher := finn.NewFetcher(cfg)
	defer fetcher.Close()

	// Stage 1: identifier discovery
	scraper := finn.New(cfg, logger, fetcher)
	ids, discStats := scraper.DiscoverIDs(ctx)
	if len(ids) == 0 {
		logger.Error("Discovery produced zero ad ids (%d pages failed) — nothing to do", discStats.PagesFailed)
		os.Exit(1)
	}
	logger.Info("Discovered %d ad ids", len(ids))

	// Stage 2: per-ad extraction
	rawAds, adStats := scraper.ScrapeAll(ctx, ids)
	logger.Info("Scraped %d ads (failed: %d, duplicates skipped: %d)",
		len(rawAds), adStats.AdsFailed, adStats.AdsSkippedDup)
	if len(rawAds) == 0 {
		logger.Error("No ads could be scraped. Exiting.")
		os.Exit(1)
	}

	// Stage 3: normalization and assembly
	normalizer := services.NewNormalizer(rules, logger)
	rows := normalizer.NormalizeAll(rawAds)

	assembler := services.NewAssembler(logger)
	table := assembler.Assemble(rows)
	if table.Len() == 0 {
		logger.Error("All rows were dropped during assembly. Exiting.")
		os.Exit(1)
	}

	// Stage 4: geocoding
	geoRetry := &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   time.Second,
		Logger:      logger,
	}
	geocoder := geocode.NewCache(geocode.NewArcGIS(
		cfg.GeocoderURL, time.Duration(cfg.HTTPTimeoutMs)*time.Millisecond, geoRetry))
	geocode.Annotate(ctx, table, geocoder, logger)

	// Stage 5: derived metrics
	deriver := services.NewDeriver(cfg.ViewingYear, logger)
	table = deriver.Derive(table)

	// Stage 6: sinks
	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	if err := csvWriter.Write(table); err != nil {
		logger.Error("CSV write failed: %v", err)
	} else {
		logger.Info("Table saved to %s", cfg.CSVOutputPath)
	}
	csvWriter.Close()

	if cfg.PostgresEnabled {
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("PostgreSQL unavailable, skipping database sink: %v", err)
		} else {
			if err := pgWriter.Write(table); err != nil {
				logger.Error("PostgreSQL write failed: %v", err)
			} else {
				logger.Info("Listings stored in PostgreSQL (table: listings)")
			}
			pgWriter.Close()
		}
	}

	// Stage 7: summary
	summarySvc := services.NewSummaryService(logger)
	summarySvc.Print(summarySvc.Generate(table))

	// Optional: serve the snapshot for downstream consumers.
	if cfg.ServeAddr != "" {
		srv := server.New(table, services.BufferDegrees(cfg.ProximityBufferM), logger)
		if err := srv.ListenAndServe(cfg.ServeAddr); err != nil {
			logger.Error("Server stopped: %v", err)
			os.Exit(1)
		}
	}
}
