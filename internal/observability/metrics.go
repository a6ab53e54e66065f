// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Auth outcomes recorded by RecordAuth.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// OTP events recorded by RecordOTP.
const (
	OTPSent         = "sent"
	OTPSendFailed   = "send_failed"
	OTPVerified     = "verified"
	OTPRejected     = "rejected"
	OTPVerifyFailed = "verify_failed"
)

// Metrics holds the application metrics. A nil *Metrics records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	AuthAttemptsTotal   *prometheus.CounterVec
	OTPEventsTotal      *prometheus.CounterVec
}

// NewMetrics creates the application metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_http_requests_total",
				Help: "Total HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fintrack_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_auth_attempts_total",
				Help: "Registration, login and availability checks by outcome",
			},
			[]string{"operation", "outcome"},
		),
		OTPEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_otp_events_total",
				Help: "One-time code lifecycle events",
			},
			[]string{"event"},
		),
	}

	reg.MustRegister(m.HTTPRequestsTotal, m.HTTPRequestDuration, m.AuthAttemptsTotal, m.OTPEventsTotal)
	return m
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordAuth records the outcome of an authentication operation.
func (m *Metrics) RecordAuth(operation, outcome string) {
	if m == nil {
		return
	}
	m.AuthAttemptsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordOTP records an OTP lifecycle event.
func (m *Metrics) RecordOTP(event string) {
	if m == nil {
		return
	}
	m.OTPEventsTotal.WithLabelValues(event).Inc()
}
