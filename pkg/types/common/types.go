// Package common holds the response envelope and small value types shared by
// every MetaNet surface.  Nothing here depends on domain packages.
package common

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Timestamp is a time.Time that marshals as RFC 3339 in UTC.
type Timestamp time.Time

// NewTimestamp returns the current UTC time.
func NewTimestamp() Timestamp {
	return Timestamp(time.Now().UTC())
}

// Time converts back to time.Time.
func (t Timestamp) Time() time.Time { return time.Time(t) }

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts RFC 3339 with or without fractional seconds.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed.UTC())
	return nil
}

// NewRequestID returns a random request identifier.
func NewRequestID() string {
	return uuid.NewString()
}

// ErrorDetail is the error body of a failed response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// APIResponse wraps every HTTP payload.
type APIResponse[T any] struct {
	Success   bool         `json:"success"`
	Data      T            `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	Timestamp Timestamp    `json:"timestamp"`
}

// NewSuccessResponse wraps data.
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{Success: true, Data: data, Timestamp: NewTimestamp()}
}

// NewErrorResponse builds a failed response.
func NewErrorResponse(code, message, detail string) APIResponse[any] {
	return APIResponse[any]{
		Error:     &ErrorDetail{Code: code, Message: message, Detail: detail},
		Timestamp: NewTimestamp(),
	}
}

// HealthStatus is the state of one dependency.
type HealthStatus string

const (
	HealthUp       HealthStatus = "up"
	HealthDown     HealthStatus = "down"
	HealthDisabled HealthStatus = "disabled"
)

// ComponentHealth reports one dependency.
type ComponentHealth struct {
	Name    string        `json:"name"`
	Status  HealthStatus  `json:"status"`
	Latency time.Duration `json:"latency_ns"`
	Message string        `json:"message,omitempty"`
}

// HealthReport aggregates dependency health.  Ready is false when any enabled
// dependency is down.
type HealthReport struct {
	Ready      bool              `json:"ready"`
	Components []ComponentHealth `json:"components"`
}

// NewHealthReport derives Ready from components.
func NewHealthReport(components ...ComponentHealth) HealthReport {
	r := HealthReport{Ready: true, Components: components}
	for _, c := range components {
		if c.Status == HealthDown {
			r.Ready = false
		}
	}
	return r
}
