package gateway

import "encoding/json"

// Kind classifies a failed call.
type Kind int

const (
	// KindNetwork covers timeouts, aborts, and connection failures.
	KindNetwork Kind = iota
	// KindRateLimited is an upstream HTTP 429.
	KindRateLimited
	// KindUpstream is any other non-success outcome reported by the
	// backend (non-2xx status or an ok:false payload).
	KindUpstream
	// KindMalformedResponse is a body that could not be parsed as JSON.
	KindMalformedResponse
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstream:
		return "upstream"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind as its wire name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a wire name back into a kind. Unknown names
// map to KindUpstream so persisted results from newer writers still
// read as failures.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "network":
		*k = KindNetwork
	case "rate_limited":
		*k = KindRateLimited
	case "malformed_response":
		*k = KindMalformedResponse
	default:
		*k = KindUpstream
	}
	return nil
}

// Result is the only value callers ever receive from the gateway.
// Exactly one of the success fields (Data) or Err is meaningful,
// keyed off OK.
type Result struct {
	OK   bool            `json:"ok"`
	Data json.RawMessage `json:"data,omitempty"`
	Err  *ResultError    `json:"error,omitempty"`
	Meta Meta            `json:"meta"`
}

// ResultError describes a classified failure.
type ResultError struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"httpStatus,omitempty"`
}

// Meta carries result provenance.
type Meta struct {
	// Cached is true when the data was served from the local cache
	// without a network call.
	Cached bool `json:"cached"`
}

func success(data json.RawMessage, cached bool) Result {
	return Result{OK: true, Data: data, Meta: Meta{Cached: cached}}
}

func failure(kind Kind, message string, httpStatus int) Result {
	return Result{OK: false, Err: &ResultError{
		Kind:       kind,
		Message:    message,
		HTTPStatus: httpStatus,
	}}
}
