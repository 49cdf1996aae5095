package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messageProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "guardian_message_duration_sec",
	Help: "Total duration of message pipeline processing",
})

var messageProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "guardian_messages_processed",
	Help: "Number of messages processed",
}, []string{"path"})

var messageErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "guardian_message_errors",
	Help: "Number of messages which failed rule processing",
})

var messageBlockedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "guardian_messages_blocked",
	Help: "Number of messages blocked, by verdict reason",
}, []string{"reason"})

var enforcementOutcomeCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "guardian_enforcement_outcomes",
	Help: "Number of enforcement attempts, by outcome",
}, []string{"outcome"})

var auditAppendErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "guardian_audit_append_errors",
	Help: "Number of failed audit log appends",
})
