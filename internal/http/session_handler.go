package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/sirupsen/logrus"
)

type SessionHandler struct {
	verifier *TokenVerifier
	timeout  time.Duration
	log      logrus.FieldLogger
}

func NewSessionHandler(verifier *TokenVerifier, timeout time.Duration, log logrus.FieldLogger) *SessionHandler {
	return &SessionHandler{verifier: verifier, timeout: timeout, log: log}
}

type SessionResponseDTO struct {
	State  string          `json:"state"`
	UserID string          `json:"user_id,omitempty"`
	Cart   CartResponseDTO `json:"cart"`
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	raw := bearerToken(r)
	if raw == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	userID, err := h.verifier.Verify(raw)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session := sessionFrom(r.Context())
	if err := session.SignIn(ctx, userID); err != nil {
		logger.FromContext(ctx, h.log).WithError(err).WithField("user_id", userID).Error("sign-in failed")
		respondError(w, http.StatusServiceUnavailable, "sign_in_failed", "could not load your cart, try again")
		return
	}

	h.respondSession(w, r)
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := sessionFrom(r.Context()).SignOut(ctx); err != nil {
		respondStoreError(w, err)
		return
	}

	h.respondSession(w, r)
}

func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	h.respondSession(w, r)
}

func (h *SessionHandler) respondSession(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	userID, _ := session.UserID()
	respondJSON(w, http.StatusOK, SessionResponseDTO{
		State:  session.State().String(),
		UserID: userID,
		Cart:   cartResponse(session.Store()),
	})
}
