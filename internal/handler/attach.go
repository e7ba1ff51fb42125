package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hubmatrix/cloudtree/internal/ctxkeys"
	"github.com/hubmatrix/cloudtree/internal/service"
)

// AttachHandler serves direct downloads addressed by attach hash, the
// stable hotlink form of a file URL that survives renames and moves.
type AttachHandler struct {
	tree *service.TreeService
}

func NewAttachHandler(tree *service.TreeService) *AttachHandler {
	return &AttachHandler{tree: tree}
}

func (h *AttachHandler) Download(w http.ResponseWriter, r *http.Request) {
	sess := ctxkeys.Session(r.Context())

	f, err := h.tree.OpenByHash(sess, r.PathValue("hash"))
	if err != nil {
		writeError(w, err)
		return
	}

	rc, err := f.Open()
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Length", strconv.FormatInt(f.Size(), 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name()))

	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("download interrupted", "hash", f.Hash(), "error", err)
	}
}
