// Package research asks an LLM for real companies matching a lead request and
// contains every upstream failure behind a deterministic fallback.
package research

import (
	"fmt"
	"net/http"
)

// Kind classifies the result of one upstream call.
type Kind string

// Outcome kinds.
const (
	KindOK                Kind = "ok"
	KindUnauthorized      Kind = "unauthorized"       // 401
	KindPaymentRequired   Kind = "payment_required"   // 402
	KindRateLimited       Kind = "rate_limited"       // 429
	KindHTTPError         Kind = "http_error"         // any other non-200
	KindRequestFailed     Kind = "request_failed"     // network error or timeout
	KindMalformedResponse Kind = "malformed_response" // no usable JSON array
)

// Outcome is the tagged result of an upstream call. Content is set only for
// KindOK.
type Outcome struct {
	Kind    Kind   `json:"kind"`
	Status  int    `json:"status,omitempty"`
	Content string `json:"-"`
	Err     error  `json:"-"`
	Timeout bool   `json:"timeout,omitempty"`
}

// OK reports whether the call produced usable content.
func (o Outcome) OK() bool { return o.Kind == KindOK }

func (o Outcome) String() string {
	switch {
	case o.Status != 0 && o.Err != nil:
		return fmt.Sprintf("%s (%d): %v", o.Kind, o.Status, o.Err)
	case o.Err != nil:
		return fmt.Sprintf("%s: %v", o.Kind, o.Err)
	case o.Status != 0:
		return fmt.Sprintf("%s (%d)", o.Kind, o.Status)
	}
	return string(o.Kind)
}

// KindForStatus maps an HTTP status code to an outcome kind.
func KindForStatus(code int) Kind {
	switch code {
	case http.StatusOK:
		return KindOK
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusPaymentRequired:
		return KindPaymentRequired
	case http.StatusTooManyRequests:
		return KindRateLimited
	}
	return KindHTTPError
}

func statusOutcome(code int, err error) Outcome {
	return Outcome{Kind: KindForStatus(code), Status: code, Err: err}
}

func malformed(reason string, err error) Outcome {
	return Outcome{Kind: KindMalformedResponse, Err: &MalformedResponseError{Reason: reason, Err: err}}
}
