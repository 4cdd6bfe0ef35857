package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Logins = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "arsipku", Name: "logins_total", Help: "Number of successful logins."},
	)
	LoginFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "arsipku", Name: "login_failures_total", Help: "Number of failed login attempts."},
	)
	AccountLockouts = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "arsipku", Name: "account_lockouts_total", Help: "Number of accounts locked for repeated failures."},
	)
	AuditWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "arsipku", Name: "audit_write_failures_total", Help: "Number of audit entries that could not be persisted."},
	)
	DocumentMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "arsipku", Name: "document_mutations_total", Help: "Number of document mutations by kind."},
		[]string{"kind"},
	)
	VersionConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "arsipku", Name: "document_version_conflicts_total", Help: "Number of optimistic-version conflicts surfaced to callers."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "arsipku", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "arsipku", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(
		Logins,
		LoginFailures,
		AccountLockouts,
		AuditWriteFailures,
		DocumentMutations,
		VersionConflicts,
		RateLimitAllowed,
		RateLimitRejected,
	)
}
