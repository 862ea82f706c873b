package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/ecopoints/internal/common"
)

// Error codes returned in the "error" field.
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeDuplicateUser      = "DUPLICATE_USER"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeRateLimited        = "RATE_LIMITED"
	CodeHistoryWriteFailed = "HISTORY_WRITE_FAILED"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type httpError struct {
	status int
	body   ErrorResponse
}

func toHTTPError(err error) httpError {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return httpError{http.StatusBadRequest, ErrorResponse{"Invalid input", CodeInvalidInput}}
	case errors.Is(err, common.ErrDuplicateUser):
		return httpError{http.StatusConflict, ErrorResponse{"Phone number or username already registered", CodeDuplicateUser}}
	case errors.Is(err, common.ErrUserNotFound), errors.Is(err, common.ErrMemberNotFound):
		return httpError{http.StatusNotFound, ErrorResponse{"User not found", CodeUserNotFound}}
	case errors.Is(err, common.ErrInvalidCredentials):
		return httpError{http.StatusUnauthorized, ErrorResponse{"Invalid username or password", CodeInvalidCredentials}}
	case errors.Is(err, common.ErrUnauthenticated):
		return httpError{http.StatusUnauthorized, ErrorResponse{"Authentication required", CodeUnauthenticated}}
	case errors.Is(err, common.ErrTokenExpired):
		return httpError{http.StatusUnauthorized, ErrorResponse{"Terminal token expired", CodeTokenExpired}}
	case errors.Is(err, common.ErrInvalidToken):
		return httpError{http.StatusUnauthorized, ErrorResponse{"Invalid terminal token", CodeInvalidToken}}
	case errors.Is(err, common.ErrRateLimited):
		return httpError{http.StatusTooManyRequests, ErrorResponse{"Too many attempts, try again later", CodeRateLimited}}
	case errors.Is(err, common.ErrHistoryWriteFailed):
		return httpError{http.StatusInternalServerError, ErrorResponse{"Deposit credited but not recorded in history", CodeHistoryWriteFailed}}
	case errors.Is(err, common.ErrStoreUnavailable):
		return httpError{http.StatusInternalServerError, ErrorResponse{"Storage is unavailable", CodeStoreUnavailable}}
	default:
		return httpError{http.StatusInternalServerError, ErrorResponse{"Internal server error", CodeInternalError}}
	}
}

// writeError maps err to a status and a machine-readable code. The error
// text itself never reaches the client.
func writeError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	writeJSON(w, he.status, he.body)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
