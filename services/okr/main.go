// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/AleutianOKR/pkg/extensions"
	"github.com/AleutianAI/AleutianOKR/pkg/logging"
	"github.com/AleutianAI/AleutianOKR/services/okr/datatypes"
	"github.com/AleutianAI/AleutianOKR/services/okr/engine/alignment"
	"github.com/AleutianAI/AleutianOKR/services/okr/engine/progress"
	"github.com/AleutianAI/AleutianOKR/services/okr/handlers"
	"github.com/AleutianAI/AleutianOKR/services/okr/middleware"
	"github.com/AleutianAI/AleutianOKR/services/okr/notify"
	"github.com/AleutianAI/AleutianOKR/services/okr/observability"
	"github.com/AleutianAI/AleutianOKR/services/okr/routes"
	"github.com/AleutianAI/AleutianOKR/services/okr/store"
	"github.com/AleutianAI/AleutianOKR/services/okr/store/badgerstore"
	"github.com/AleutianAI/AleutianOKR/services/okr/store/memstore"
)

func main() {
	port := os.Getenv("OKR_PORT")
	if port == "" {
		port = "12220"
	}

	baseLogger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		LogDir:  os.Getenv("OKR_LOG_DIR"),
		Service: "okr-service",
		JSON:    true,
	})
	defer baseLogger.Close()
	logger := baseLogger.Slog()
	slog.SetDefault(logger)

	cleanup, err := observability.InitTracer("okr-service")
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	st, err := openStore()
	if err != nil {
		log.Fatalf("FATAL: Could not open the record store: %v", err)
	}
	defer st.Close()

	defaultCalc := datatypes.CalcMethod(os.Getenv("OKR_DEFAULT_CALC_METHOD"))
	if defaultCalc != "" && !defaultCalc.IsValid() {
		slog.Warn("OKR_DEFAULT_CALC_METHOD is invalid, defaulting to weighted_avg",
			"value", string(defaultCalc))
		defaultCalc = ""
	}
	if defaultCalc == "" {
		defaultCalc = datatypes.CalcWeightedAvg
	}

	opts := extensions.DefaultOptions()
	hub := notify.NewHub(logger)

	mgr := alignment.NewManager(alignment.ManagerConfig{
		Store:      st,
		Permission: opts.AlignPerm,
		Audit:      opts.AuditLogger,
		Notifier:   hub,
		Logger:     logger,
	})
	agg := progress.NewAggregator(progress.AggregatorConfig{
		Store:         st,
		DefaultMethod: defaultCalc,
		Notifier:      hub,
		Logger:        logger,
	})
	h := handlers.NewHandlers(st, mgr, agg, opts.AuthzProvider, defaultCalc)

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{})

	router := gin.Default()
	router.Use(otelgin.Middleware("okr-service"))

	routes.SetupRoutes(router, h, hub, &opts, limiter)

	log.Println("Starting the OKR server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// openStore selects the persistence backend from the environment. An empty
// OKR_DB_PATH means lightweight mode: an in-memory store that evaporates on
// restart, useful for demos and tests.
func openStore() (store.Store, error) {
	dbPath := strings.Trim(os.Getenv("OKR_DB_PATH"), "\"' ")
	if dbPath == "" {
		slog.Info("OKR_DB_PATH not set or empty. Running in lightweight mode (in-memory store).")
		return memstore.New(), nil
	}

	cfg := badgerstore.DefaultConfig(dbPath)
	cfg.Logger = slog.Default()
	return badgerstore.Open(cfg)
}
