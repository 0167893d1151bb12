package billing

import (
	"strconv"
	"strings"
)

// PaymentStatus is the processor's status vocabulary mapped onto names.
type PaymentStatus string

const (
	PaymentNotFinished PaymentStatus = "not_finished"
	PaymentAuthorized  PaymentStatus = "authorized"
	PaymentPaid        PaymentStatus = "paid"
	PaymentDenied      PaymentStatus = "denied"
	PaymentVoided      PaymentStatus = "voided"
	PaymentRefunded    PaymentStatus = "refunded"
	PaymentPending     PaymentStatus = "pending"
	PaymentAborted     PaymentStatus = "aborted"
	PaymentScheduled   PaymentStatus = "scheduled"
	PaymentUnknown     PaymentStatus = "unknown"
)

var statusByCode = map[int]PaymentStatus{
	0:  PaymentNotFinished,
	1:  PaymentAuthorized,
	2:  PaymentPaid,
	3:  PaymentDenied,
	10: PaymentVoided,
	11: PaymentRefunded,
	12: PaymentPending,
	13: PaymentAborted,
	20: PaymentScheduled,
}

var statusAliases = map[string]PaymentStatus{
	"notfinished":       PaymentNotFinished,
	"not_finished":      PaymentNotFinished,
	"authorized":        PaymentAuthorized,
	"paid":              PaymentPaid,
	"paymentconfirmed":  PaymentPaid,
	"payment_confirmed": PaymentPaid,
	"denied":            PaymentDenied,
	"voided":            PaymentVoided,
	"canceled":          PaymentVoided,
	"cancelled":         PaymentVoided,
	"refunded":          PaymentRefunded,
	"pending":           PaymentPending,
	"aborted":           PaymentAborted,
	"scheduled":         PaymentScheduled,
}

// ProcessorStatus is a parsed status: Kind is the closed classification and
// Raw is what the processor actually sent.
type ProcessorStatus struct {
	Kind PaymentStatus
	Raw  string
}

// ParseProcessorStatus accepts numeric codes ("2") and names ("paid").
// Unrecognised values classify as PaymentUnknown with Raw preserved.
func ParseProcessorStatus(raw string) ProcessorStatus {
	trimmed := strings.TrimSpace(raw)
	if code, err := strconv.Atoi(trimmed); err == nil {
		if kind, ok := statusByCode[code]; ok {
			return ProcessorStatus{Kind: kind, Raw: trimmed}
		}
		return ProcessorStatus{Kind: PaymentUnknown, Raw: trimmed}
	}
	if kind, ok := statusAliases[strings.ToLower(trimmed)]; ok {
		return ProcessorStatus{Kind: kind, Raw: trimmed}
	}
	return ProcessorStatus{Kind: PaymentUnknown, Raw: trimmed}
}

func StatusFromCode(code int) ProcessorStatus {
	return ParseProcessorStatus(strconv.Itoa(code))
}

// Stored is the value written to payments.status: the canonical name for
// known statuses, the raw value otherwise.
func (s ProcessorStatus) Stored() string {
	if s.Kind == PaymentUnknown {
		return s.Raw
	}
	return string(s.Kind)
}

// Code returns the processor's numeric code for known statuses, or -1.
func (s ProcessorStatus) Code() int {
	for code, kind := range statusByCode {
		if kind == s.Kind {
			return code
		}
	}
	return -1
}

func (s ProcessorStatus) Known() bool {
	return s.Kind != PaymentUnknown
}

// GrantsAccess reports whether the payment should back an active license.
func (s ProcessorStatus) GrantsAccess() bool {
	return s.Kind == PaymentAuthorized || s.Kind == PaymentPaid
}

// RevokesAccess reports whether the payment was canceled or aborted.
func (s ProcessorStatus) RevokesAccess() bool {
	return s.Kind == PaymentVoided || s.Kind == PaymentAborted
}
