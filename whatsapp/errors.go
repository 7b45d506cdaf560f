package whatsapp

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// CodeInvalidToken is the Graph API code for an expired or invalid access token
const CodeInvalidToken = 190

// APIError is the error object returned by the Graph API
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
	Subcode    int    `json:"error_subcode"`
	TraceID    string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("whatsapp api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("whatsapp api: %s (status %d, code %d, type %s)", e.Message, e.StatusCode, e.Code, e.Type)
}

// IsAuth reports whether the token was rejected
func (e *APIError) IsAuth() bool {
	return e.Code == CodeInvalidToken || e.StatusCode == http.StatusUnauthorized
}

func parseAPIError(status int, body []byte) error {
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return &APIError{StatusCode: status}
	}
	envelope.Error.StatusCode = status
	return envelope.Error
}
