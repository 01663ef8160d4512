// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics holds the Prometheus instruments used across the service.
// All collectors are registered with the default registry, so mounting
// Handler on /metrics is enough to expose them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onews_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onews_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"})

	ArticleWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onews_article_writes_total",
			Help: "Successful article writes by operation.",
		}, []string{"op"})

	SlugCollisionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "onews_slug_collisions_total",
			Help: "Slug writes that hit the unique index and were retried.",
		})

	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onews_cache_lookups_total",
			Help: "Read cache lookups by result (hit or miss).",
		}, []string{"result"})

	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onews_uploads_total",
			Help: "Image uploads by storage backend and outcome.",
		}, []string{"backend", "outcome"})

	SchemaVersion = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "onews_schema_version",
			Help: "Database migration version read at startup.",
		})

	MultilingualSchema = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "onews_schema_multilingual",
			Help: "1 when the schema has the news language column, 0 otherwise.",
		})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ArticleWritesTotal,
		SlugCollisionsTotal,
		CacheLookupsTotal,
		UploadsTotal,
		SchemaVersion,
		MultilingualSchema,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetSchema records the startup schema capability.
func SetSchema(version int64, multilingual bool) {
	SchemaVersion.Set(float64(version))
	if multilingual {
		MultilingualSchema.Set(1)
	} else {
		MultilingualSchema.Set(0)
	}
}

// Middleware records request counts and latency labelled by the chi route
// pattern, which keeps label cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
