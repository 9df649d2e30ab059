package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	rhsmerrors "github.com/treydock/puppet-subscription-manager/pkg/errors"
	"github.com/treydock/puppet-subscription-manager/pkg/serializer"
)

// HTTPStatusFromCode maps an error code to its HTTP status.
func HTTPStatusFromCode(code rhsmerrors.ErrorCode) int {
	switch code {
	case rhsmerrors.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case rhsmerrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case rhsmerrors.ErrCodeNotFound:
		return http.StatusNotFound
	case rhsmerrors.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case rhsmerrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case rhsmerrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case rhsmerrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func retryableFromCode(code rhsmerrors.ErrorCode) bool {
	switch code {
	case rhsmerrors.ErrCodeTimeout,
		rhsmerrors.ErrCodeUnavailable,
		rhsmerrors.ErrCodeRateLimitExceeded,
		rhsmerrors.ErrCodeInternal:
		return true
	default:
		return false
	}
}

// WriteError writes an ErrorResponse carrying the request id.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int,
	code rhsmerrors.ErrorCode, message string, retryable bool, details map[string]any) {

	requestID, _ := r.Context().Value(contextKeyRequestID).(string)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	serializer.RespondJSON(w, statusCode, ErrorResponse{
		Code:      string(code),
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	})
}

// WriteErrorFromErr derives status, code and message from err. A
// StructuredError contributes its own message and context; other errors are
// classified with CodeOf and reported under fallbackMessage.
func WriteErrorFromErr(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string, extraDetails map[string]any) {
	var se *rhsmerrors.StructuredError
	if errors.As(err, &se) {
		details := mergeDetails(se.Context, extraDetails)
		if se.Cause != nil {
			details = mergeDetails(details, map[string]any{"error": se.Cause.Error()})
		}
		WriteError(w, r, HTTPStatusFromCode(se.Code), se.Code, se.Message, retryableFromCode(se.Code), details)
		return
	}

	code := rhsmerrors.CodeOf(err)
	details := mergeDetails(extraDetails, map[string]any{"error": err.Error()})
	WriteError(w, r, HTTPStatusFromCode(code), code, fallbackMessage, retryableFromCode(code), details)
}

func mergeDetails(a, b map[string]any) map[string]any {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
