package http

import (
	"net/http"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/service"
)

// CookieConfig describes the browser session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	auth   service.AuthService
	cookie CookieConfig
}

func NewAuthHandler(auth service.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type resendOTPRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.signedIn(w, session)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if err := decodeJSON(w, r, &reg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	msg, err := h.auth.Register(r.Context(), reg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusCreated, msg)
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session, err := h.auth.VerifyEmail(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.signedIn(w, session)
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req resendOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	msg, err := h.auth.ResendOTP(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, msg)
}

// Logout clears the stored token and profile. It succeeds without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), SessionIDFromContext(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	clearSessionCookie(w, h.cookie.Name)
	writeMessage(w, http.StatusOK, "logged out")
}

func (h *AuthHandler) signedIn(w http.ResponseWriter, session *domain.Session) {
	setSessionCookie(w, h.cookie.Name, session.ID, session.ExpiresOn, h.cookie.Secure)
	writeData(w, http.StatusOK, session.Profile)
}
