package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hubmatrix/cloudtree/internal/ctxkeys"
	"github.com/hubmatrix/cloudtree/internal/model"
	"github.com/hubmatrix/cloudtree/internal/service"
)

// CloudHandler serves the browse/upload surface of the file tree.
type CloudHandler struct {
	tree *service.TreeService
	root *service.RootService
}

func NewCloudHandler(tree *service.TreeService, root *service.RootService) *CloudHandler {
	return &CloudHandler{tree: tree, root: root}
}

type entryJSON struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Size      int64  `json:"size,omitempty"`
	SizeHuman string `json:"size_human,omitempty"`
	Mimetype  string `json:"mimetype,omitempty"`
	Modified  string `json:"modified,omitempty"`
}

type quotaJSON struct {
	Used      int64  `json:"used"`
	UsedHuman string `json:"used_human"`
	Free      int64  `json:"free"`
}

type listingJSON struct {
	Name    string      `json:"name"`
	Entries []entryJSON `json:"entries"`
	Quota   *quotaJSON  `json:"quota,omitempty"`
}

// Show streams a file or returns a JSON listing for a directory. An empty
// path lists every channel the observer may browse.
func (h *CloudHandler) Show(w http.ResponseWriter, r *http.Request) {
	sess := ctxkeys.Session(r.Context())
	path := r.PathValue("path")

	if strings.Trim(path, "/") == "" {
		nodes, err := h.root.Children(sess)
		if err != nil {
			writeError(w, err)
			return
		}
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			return
		}
		writeJSON(w, http.StatusOK, listingJSON{Name: "/", Entries: entries(nodes)})
		return
	}

	node, err := h.tree.Resolve(sess, path)
	if err != nil {
		writeError(w, err)
		return
	}

	switch n := node.(type) {
	case *service.Directory:
		h.showDirectory(w, r, sess, n)
	case *service.File:
		h.streamFile(w, r, n)
	}
}

func (h *CloudHandler) showDirectory(w http.ResponseWriter, r *http.Request, sess *model.Session, dir *service.Directory) {
	nodes, err := dir.Children()
	if err != nil {
		writeError(w, err)
		return
	}

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	}

	listing := listingJSON{Name: dir.Name(), Entries: entries(nodes)}

	// quota is the owner's business only
	if sess.LoggedIn() && sess.ChannelID == sess.OwnerID {
		used, free, err := dir.Quota()
		if err != nil {
			writeError(w, err)
			return
		}
		listing.Quota = &quotaJSON{Used: used, UsedHuman: humanize.Bytes(uint64(used)), Free: free}
	}

	writeJSON(w, http.StatusOK, listing)
}

func (h *CloudHandler) streamFile(w http.ResponseWriter, r *http.Request, f *service.File) {
	rc, err := f.Open()
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	modified, err := f.LastModified()
	if err == nil {
		w.Header().Set("Last-Modified", modified.UTC().Format(http.TimeFormat))
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Length", strconv.FormatInt(f.Size(), 10))
	w.Header().Set("ETag", fmt.Sprintf("%q", fmt.Sprintf("%s-%d", f.Hash(), f.Revision())))

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("file stream interrupted", "name", f.Name(), "error", err)
	}
}

// Upload handles PUT of file content. The parent directory must already
// exist; replacing an existing file requires the overwrite query flag.
func (h *CloudHandler) Upload(w http.ResponseWriter, r *http.Request) {
	dirPath, name, ok := splitLeaf(r.PathValue("path"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("cannot write to a channel root path"))
		return
	}

	dir, err := h.resolveDirectory(r, dirPath)
	if err != nil {
		writeError(w, err)
		return
	}

	overwrite, _ := strconv.ParseBool(r.URL.Query().Get("overwrite"))

	hash, err := dir.CreateFile(name, r.Body, overwrite)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"hash": hash, "name": name})
}

// Op dispatches POST operations: op=mkdir creates a directory, op=rename
// renames the resolved node to the name query parameter.
func (h *CloudHandler) Op(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("op") {
	case "mkdir":
		h.mkdir(w, r)
	case "rename":
		h.rename(w, r)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("unknown operation"))
	}
}

func (h *CloudHandler) mkdir(w http.ResponseWriter, r *http.Request) {
	dirPath, name, ok := splitLeaf(r.PathValue("path"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("cannot create a channel root"))
		return
	}

	parent, err := h.resolveDirectory(r, dirPath)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := parent.CreateDirectory(name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"name": created.Name()})
}

func (h *CloudHandler) rename(w http.ResponseWriter, r *http.Request) {
	sess := ctxkeys.Session(r.Context())
	newName := r.URL.Query().Get("name")

	node, err := h.tree.Resolve(sess, r.PathValue("path"))
	if err != nil {
		writeError(w, err)
		return
	}

	switch n := node.(type) {
	case *service.Directory:
		err = n.Rename(newName)
	case *service.File:
		err = n.Rename(newName)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"name": newName})
}

// Delete removes the resolved file or directory.
func (h *CloudHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := ctxkeys.Session(r.Context())

	node, err := h.tree.Resolve(sess, r.PathValue("path"))
	if err != nil {
		writeError(w, err)
		return
	}

	switch n := node.(type) {
	case *service.Directory:
		err = n.Delete()
	case *service.File:
		err = n.Delete()
	}
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CloudHandler) resolveDirectory(r *http.Request, path string) (*service.Directory, error) {
	sess := ctxkeys.Session(r.Context())

	node, err := h.tree.Resolve(sess, path)
	if err != nil {
		return nil, err
	}

	dir, ok := node.(*service.Directory)
	if !ok {
		return nil, service.ErrNotFound
	}
	return dir, nil
}

// splitLeaf separates a path into its parent and final segment. ok is
// false when the path names a channel root, which has no writable parent.
func splitLeaf(path string) (parent, leaf string, ok bool) {
	segments := []string{}
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) < 2 {
		return "", "", false
	}
	return strings.Join(segments[:len(segments)-1], "/"), segments[len(segments)-1], true
}

func entries(nodes []service.Node) []entryJSON {
	out := make([]entryJSON, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, entry(n))
	}
	return out
}

func entry(n service.Node) entryJSON {
	e := entryJSON{Name: n.Name(), Type: "dir"}

	if modified, err := n.LastModified(); err == nil && !modified.IsZero() {
		e.Modified = modified.UTC().Format(time.RFC3339)
	}

	if f, ok := n.(*service.File); ok {
		e.Type = "file"
		e.Size = f.Size()
		e.SizeHuman = humanize.Bytes(uint64(f.Size()))
		e.Mimetype = f.ContentType()
	}

	return e
}
