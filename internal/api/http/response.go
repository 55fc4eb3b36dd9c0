package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/logger"
	"doorcars-storefront/internal/repository/rest"
	"doorcars-storefront/internal/service"
)

// envelope mirrors the remote API's response shape so the browser handles
// both the same way.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: true, Message: userMessage(msg)})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: userMessage(msg)})
}

// writeServiceError maps a service error to a status code. Remote API
// messages are passed through verbatim.
func writeServiceError(w http.ResponseWriter, err error) {
	var apiErr *rest.APIError
	switch {
	case errors.As(err, &apiErr):
		status := apiErr.StatusCode
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		writeError(w, status, apiErr.Message)
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, service.MsgSignIn)
	case errors.Is(err, domain.ErrCarUnavailable), errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrUnknownOrder):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrOrderConsumed), errors.Is(err, domain.ErrQuoteSuperseded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrIncompleteWindow), errors.Is(err, domain.ErrMalformedWindow),
		errors.Is(err, domain.ErrWindowTooShort), errors.Is(err, domain.ErrNoDocuments),
		errors.Is(err, service.ErrMissingCredentials), errors.Is(err, service.ErrMissingOTP):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("Unhandled request error", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong, please try again")
	}
}

// outcomeResponse is what a "Book Now" press answers with once it is over.
type outcomeResponse struct {
	Success     bool                   `json:"success"`
	Message     string                 `json:"message,omitempty"`
	Outcome     *domain.BookingOutcome `json:"outcome"`
	SuccessPath string                 `json:"successPath,omitempty"`
}

func writeOutcome(w http.ResponseWriter, out *domain.BookingOutcome) {
	resp := outcomeResponse{
		Success:     out.Status == domain.OutcomeConfirmed,
		Outcome:     out,
		SuccessPath: out.SuccessPath(),
	}
	status := http.StatusOK
	if out.Status == domain.OutcomeRejected || out.Status == domain.OutcomeRedirect {
		resp.Message = userMessage(out.Reason)
	}
	if out.Status == domain.OutcomeRejected {
		status = outcomeStatus(out.Kind)
	}
	writeJSON(w, status, resp)
}

func outcomeStatus(kind domain.FailureKind) int {
	switch kind {
	case domain.FailureValidation:
		return http.StatusBadRequest
	case domain.FailureTrust:
		return http.StatusUnauthorized
	case domain.FailureGateway:
		return http.StatusPaymentRequired
	default:
		return http.StatusBadGateway
	}
}

// userMessage capitalises the first letter of an error text.
func userMessage(s string) string {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}
