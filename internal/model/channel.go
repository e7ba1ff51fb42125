package model

import (
	"strings"
	"time"
)

// Channel is an identity that owns a storage tree. Its address is the URL
// slug under which the tree is reachable; its hash is the stable identity
// used by the permission layer.
type Channel struct {
	ID        int64     `db:"id"`
	AccountID int64     `db:"account_id"`
	Address   string    `db:"address"`
	Hash      string    `db:"hash"`
	Timezone  string    `db:"timezone"`
	Removed   bool      `db:"removed"`
	Hidden    bool      `db:"hidden"`
	AllowCID  string    `db:"allow_cid"` // default ACL for new attach rows
	AllowGID  string    `db:"allow_gid"`
	DenyCID   string    `db:"deny_cid"`
	DenyGID   string    `db:"deny_gid"`
	Created   time.Time `db:"created"`
}

// SplitHashes parses a comma-separated ACL hash list as stored in the
// allow/deny columns. Empty and whitespace-only entries are dropped.
func SplitHashes(list string) []string {
	if list == "" {
		return nil
	}
	var out []string
	for _, h := range strings.Split(list, ",") {
		h = strings.TrimSpace(h)
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

// JoinHashes is the inverse of SplitHashes.
func JoinHashes(hashes []string) string {
	return strings.Join(hashes, ",")
}
