package models

// ErrorResponse is the envelope for every non-2xx response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type HealthResponse struct {
	Status     string            `json:"status"`
	ModelReady bool              `json:"model_ready"`
	Services   map[string]string `json:"services,omitempty"`
}
