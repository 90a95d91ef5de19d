// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability holds the Prometheus metrics and the tracing setup
// for the OKR service.
package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics
var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "okr_http_requests_total",
		Help: "Total HTTP requests by method, route, and status",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "okr_http_request_duration_seconds",
		Help:    "HTTP request duration",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"method", "route"})
)

// Engine metrics
var (
	// RecalculationsTotal counts progress roll-ups by outcome.
	RecalculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "okr_recalculations_total",
		Help: "Total progress recalculations by outcome",
	}, []string{"outcome"})

	// CascadeDepth records how many objectives each cascade touched.
	CascadeDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "okr_cascade_depth",
		Help:    "Objectives touched per cascade",
		Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
	})

	// AlignmentMutationsTotal counts alignment create/delete attempts.
	AlignmentMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "okr_alignment_mutations_total",
		Help: "Total alignment mutations by operation and outcome",
	}, []string{"operation", "outcome"})

	// CycleRejectionsTotal counts alignment creations rejected by the cycle
	// detector.
	CycleRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "okr_cycle_rejections_total",
		Help: "Alignment creations rejected for forming a cycle",
	})

	// WebsocketClients tracks currently connected invalidation clients.
	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "okr_websocket_clients",
		Help: "Connected invalidation websocket clients",
	})
)

// MetricsHandler returns the Prometheus scrape endpoint handler.
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// HTTPMetrics is gin middleware that records request counts and latency.
// Uses the route template, not the raw path, so ids do not explode the
// label space.
func HTTPMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).
			Observe(time.Since(start).Seconds())
	}
}
