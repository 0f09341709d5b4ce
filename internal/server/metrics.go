package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tool call metrics
	toolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vpoint_tool_calls_total",
			Help: "Total number of MCP tool calls",
		},
		[]string{"tool", "status"}, // status: ok, error
	)

	toolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vpoint_tool_call_duration_seconds",
			Help:    "MCP tool call duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"tool"},
	)

	// Estimation metrics
	ransacIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vpoint_ransac_iterations",
			Help:    "Hypotheses drawn per extraction round",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
	)

	vanishingPointsFound = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vpoint_vanishing_points_found",
			Help:    "Vanishing points returned per extraction",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	roundFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vpoint_round_failures_total",
			Help: "Extraction rounds that produced no vanishing point",
		},
		[]string{"reason"},
	)

	segmentsDetected = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vpoint_segments_detected",
			Help:    "Line segments detected per image",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 200, 500},
		},
	)
)
