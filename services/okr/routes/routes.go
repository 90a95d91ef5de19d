// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianOKR/pkg/extensions"
	"github.com/AleutianAI/AleutianOKR/services/okr/handlers"
	"github.com/AleutianAI/AleutianOKR/services/okr/middleware"
	"github.com/AleutianAI/AleutianOKR/services/okr/notify"
	"github.com/AleutianAI/AleutianOKR/services/okr/observability"
)

// SetupRoutes registers every OKR endpoint on the router.
func SetupRoutes(router *gin.Engine, h *handlers.Handlers, hub *notify.Hub, opts *extensions.ServiceOptions, limiter *middleware.RateLimiter) {
	router.Use(observability.HTTPMetrics())

	router.GET("/metrics", observability.MetricsHandler())

	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(opts.AuthProvider))
	v1.Use(middleware.RateLimitMiddleware(limiter))
	{
		v1.GET("/health", h.HandleHealth)
		v1.GET("/events/ws", hub.HandleWebSocket())

		objectives := v1.Group("/objectives")
		{
			objectives.POST("", h.HandleCreateObjective)
			objectives.GET("", h.HandleListObjectives)
			objectives.GET("/:id", h.HandleGetObjective)
			objectives.DELETE("/:id", h.HandleDeleteObjective)
			objectives.GET("/:id/children", h.HandleListChildren)
			objectives.GET("/:id/constraints", h.HandleGetConstraints)
			objectives.PUT("/:id/status", h.HandleUpdateStatus)
			objectives.PUT("/:id/progress", h.HandleUpdateProgress)
			objectives.POST("/:id/recalculate", h.HandleRecalculate)
			objectives.POST("/:id/keyresults", h.HandleCreateKeyResult)
			objectives.GET("/:id/keyresults", h.HandleListKeyResults)
		}

		alignments := v1.Group("/alignments")
		{
			alignments.POST("", h.HandleCreateAlignment)
			alignments.GET("", h.HandleListAlignments)
			alignments.DELETE("/:id", h.HandleDeleteAlignment)
		}

		keyResults := v1.Group("/keyresults")
		{
			keyResults.PUT("/:id/value", h.HandleUpdateKeyResultValue)
			keyResults.DELETE("/:id", h.HandleDeleteKeyResult)
		}
	}
}
