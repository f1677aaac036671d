package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CallsSummaryRequest requests aggregated call metrics.
// Tenant isolation: TenantUUID is required.

type CallsSummaryRequest struct {
	TenantUUID string    `json:"tenant_uuid"`
	Range      TimeRange `json:"range"`
}

type CallsSummary struct {
	TenantUUID string `json:"tenant_uuid"`

	TotalCalls      int `json:"total_calls"`
	AnsweredCalls   int `json:"answered_calls"`
	UnansweredCalls int `json:"unanswered_calls"`

	InternalCalls int `json:"internal_calls"`
	InboundCalls  int `json:"inbound_calls"`
	OutboundCalls int `json:"outbound_calls"`

	// Durations measure answer-to-hangup talk time, whole seconds.
	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	RecordedCalls int `json:"recorded_calls"`
}
