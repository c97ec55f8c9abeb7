package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PurchasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchases_total",
		Help: "Total number of committed single purchases",
	})

	PurchasesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "purchases_failed_total",
		Help: "Total number of rejected or failed purchases",
	}, []string{"reason"})

	CombosTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "combo_purchases_total",
		Help: "Total number of committed combo purchases",
	})

	CombosFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "combo_purchases_failed_total",
		Help: "Total number of rejected or failed combo purchases",
	}, []string{"reason"})

	AllocationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "allocation_latency_seconds",
		Help:    "Latency of inventory slot allocation",
		Buckets: prometheus.DefBuckets,
	})

	UnitsDeliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "units_delivered_total",
		Help: "Total number of inventory slots delivered",
	})

	StockUnitsAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_units_added_total",
		Help: "Total number of inventory units added by administrators",
	})

	BalanceCreditsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "balance_credits_total",
		Help: "Total number of administrative balance credits",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
