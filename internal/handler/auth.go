package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hubmatrix/cloudtree/internal/service"
)

// AuthHandler issues and clears session cookies for the channel login
// flow. Basic auth and the guest sentinel bypass this entirely.
type AuthHandler struct {
	identity *service.IdentityService
}

func NewAuthHandler(identity *service.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

type loginRequest struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	ch, err := h.identity.Login(req.Address, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, errorBody("invalid address or password"))
			return
		}
		writeError(w, err)
		return
	}

	token, err := h.identity.GenerateJWT(ch)
	if err != nil {
		writeError(w, err)
		return
	}

	h.identity.SetSessionCookie(w, token, time.Now().Add(h.identity.JWTExpiry()))

	writeJSON(w, http.StatusOK, map[string]string{
		"address": ch.Address,
		"hash":    ch.Hash,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.identity.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
