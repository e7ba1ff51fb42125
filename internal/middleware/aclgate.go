package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hubmatrix/cloudtree/internal/ctxkeys"
	"github.com/hubmatrix/cloudtree/internal/repository"
)

// ACLGate binds the owning channel of the visited path into the session
// and enforces the block_public setting. The first meaningful segment of
// a /cloud path is a channel address; principals and auth surfaces are
// never owner-bound.
func ACLGate(channels repository.ChannelRepository, blockPublic bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := ctxkeys.Session(r.Context())
			if sess == nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			segments := pathSegments(r.URL.Path)
			if len(segments) == 0 || segments[0] == "auth" {
				next.ServeHTTP(w, r)
				return
			}

			if blockPublic && sess.Anonymous() {
				http.Error(w, "permission denied", http.StatusForbidden)
				return
			}

			if segments[0] == "principals" || segments[0] == "attach" {
				next.ServeHTTP(w, r)
				return
			}

			if segments[0] == "cloud" {
				segments = segments[1:]
			}
			if len(segments) == 0 {
				// the root collection above all channels has no owner
				next.ServeHTTP(w, r)
				return
			}

			ch, err := channels.ByAddress(segments[0])
			if err != nil {
				if errors.Is(err, repository.ErrChannelNotFound) {
					http.Error(w, "not found", http.StatusNotFound)
					return
				}
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			sess.BindOwner(ch)
			next.ServeHTTP(w, r)
		})
	}
}

func pathSegments(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
