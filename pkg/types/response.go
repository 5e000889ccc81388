package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope is the error body shape: a human message under "error" plus a stable code.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
