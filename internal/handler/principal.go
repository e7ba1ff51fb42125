package handler

import (
	"net/http"

	"github.com/hubmatrix/cloudtree/internal/ctxkeys"
	"github.com/hubmatrix/cloudtree/internal/model"
	"github.com/hubmatrix/cloudtree/internal/service"
)

// PrincipalHandler exposes the ACL identifier namespace.
type PrincipalHandler struct {
	principals *service.PrincipalService
}

func NewPrincipalHandler(principals *service.PrincipalService) *PrincipalHandler {
	return &PrincipalHandler{principals: principals}
}

// Channels lists every visible channel principal.
func (h *PrincipalHandler) Channels(w http.ResponseWriter, r *http.Request) {
	principals, err := h.principals.Channels()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, principalList(principals))
}

// Collections lists the logged-in channel's privacy groups.
func (h *PrincipalHandler) Collections(w http.ResponseWriter, r *http.Request) {
	sess := ctxkeys.Session(r.Context())

	principals, err := h.principals.Collections(sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, principalList(principals))
}

// Current reports the acting identity's principal URI.
func (h *PrincipalHandler) Current(w http.ResponseWriter, r *http.Request) {
	sess := ctxkeys.Session(r.Context())

	uri := h.principals.CurrentPrincipal(sess)
	if uri == "" {
		writeJSON(w, http.StatusOK, map[string]any{"principal": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"principal": uri})
}

func principalList(principals []model.Principal) map[string][]model.Principal {
	return map[string][]model.Principal{"principals": principals}
}
