package api

import (
	"errors"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// EnvelopeVersion is the "v" field of every response body. Bump it only
// with a client release that understands the new shape.
const EnvelopeVersion = 1

// APIEnvelope wraps successful bodies and simple errors.
type APIEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// APIErrorEnvelope carries a coded error.
type APIErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma transformer that wraps every response body.
// Errors carrying a code become APIErrorEnvelope; anything else is data.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	failed := strings.HasPrefix(status, "4") || strings.HasPrefix(status, "5")

	var apiErr *APIError
	if err, ok := v.(error); ok && errors.As(err, &apiErr) && apiErr.Code != "" {
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}

	if err, ok := v.(error); ok && failed {
		return APIEnvelope{Version: EnvelopeVersion, Success: false, Error: err.Error()}, nil
	}

	return APIEnvelope{Version: EnvelopeVersion, Success: !failed, Data: v}, nil
}
