package domain

import (
	"encoding/json"
	"time"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// FailureKind classifies why a probe failed.
type FailureKind string

const (
	KindTimeout           FailureKind = "timeout"
	KindConnectionRefused FailureKind = "connection_refused"
	KindAuthFailure       FailureKind = "auth_failure"
	KindProtocolMismatch  FailureKind = "protocol_mismatch"
	KindOther             FailureKind = "other"
)

// ProbeError is a recoverable, per-tick failure.
type ProbeError struct {
	Kind FailureKind
	Err  error
}

func (e *ProbeError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *ProbeError) Unwrap() error { return e.Err }

// ProbeResult is the outcome of one tick. Outcome selects which of the
// Success fields (Version, Latency, Atypical, Note) or Failure fields
// (Kind, Reason) are meaningful.
type ProbeResult struct {
	RunID     string    `json:"run_id,omitempty"`
	Tick      int64     `json:"tick"`
	Outcome   Outcome   `json:"outcome"`
	CheckedAt time.Time `json:"checked_at"`

	Version  string        `json:"version,omitempty"`
	Latency  time.Duration `json:"-"`
	Atypical bool          `json:"atypical,omitempty"`
	Note     string        `json:"note,omitempty"`

	Kind   FailureKind `json:"kind,omitempty"`
	Reason string      `json:"reason,omitempty"`
}

func Success(version string, latency time.Duration) ProbeResult {
	return ProbeResult{
		Outcome:   OutcomeSuccess,
		Version:   version,
		Latency:   latency,
		CheckedAt: time.Now().UTC(),
	}
}

func Failure(kind FailureKind, reason string) ProbeResult {
	return ProbeResult{
		Outcome:   OutcomeFailure,
		Kind:      kind,
		Reason:    reason,
		CheckedAt: time.Now().UTC(),
	}
}

// FailureFrom builds a Failure from a ProbeError.
func FailureFrom(err *ProbeError) ProbeResult {
	reason := ""
	if err.Err != nil {
		reason = err.Err.Error()
	}
	return Failure(err.Kind, reason)
}

func (r ProbeResult) OK() bool { return r.Outcome == OutcomeSuccess }

// LatencyMS is the probe latency in milliseconds; zero for failures.
func (r ProbeResult) LatencyMS() float64 {
	return float64(r.Latency) / float64(time.Millisecond)
}

// MarshalJSON adds latency_ms for successful results.
func (r ProbeResult) MarshalJSON() ([]byte, error) {
	type plain ProbeResult
	out := struct {
		plain
		LatencyMS *float64 `json:"latency_ms,omitempty"`
	}{plain: plain(r)}
	if r.OK() {
		ms := r.LatencyMS()
		out.LatencyMS = &ms
	}
	return json.Marshal(out)
}
