package types

// SuccessEnvelope wraps every successful API payload so ledger responses
// share one shape with the health and history endpoints.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire form of a coded error. Details appear only for
// codes whose metadata allows exposing them.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError for failed requests.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
