package types

// SuccessEnvelope wraps every successful JSON body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error. RequestID echoes X-Request-Id so a
// shopper report can be matched to the log line; Retryable tells the page
// whether offering "try again" makes sense.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	Retryable bool   `json:"retryable"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
