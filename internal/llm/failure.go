package llm

import (
	"errors"
	"fmt"
)

// Reason classifies why a completion failed.
type Reason string

// Failure reasons.
const (
	ReasonNoCredentials    Reason = "no_credentials"
	ReasonRateLimited      Reason = "rate_limited"
	ReasonTimeout          Reason = "timeout"
	ReasonModelUnavailable Reason = "model_unavailable"
	ReasonHTTPStatus       Reason = "http_status"
	ReasonTransport        Reason = "transport"
	ReasonEmptyResponse    Reason = "empty_response"
)

// Failure is the error returned by every failed completion. Model is the last
// model tried, empty when none was.
type Failure struct {
	Reason Reason
	Model  string
	Detail string
	Err    error
}

func (f *Failure) Error() string {
	if f.Model != "" {
		return fmt.Sprintf("completion failed (%s, model %s): %s", f.Reason, f.Model, f.Detail)
	}

	return fmt.Sprintf("completion failed (%s): %s", f.Reason, f.Detail)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// ReasonOf returns the failure reason carried by err.
func ReasonOf(err error) (Reason, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason, true
	}

	return "", false
}
