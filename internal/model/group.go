package model

// Group is a named set of observer hashes owned by a channel, referenced
// from the allow_gid/deny_gid ACL lists and exposed as a collection
// principal.
type Group struct {
	ID        int64  `db:"id"`
	ChannelID int64  `db:"channel_id"`
	Hash      string `db:"hash"`
	Name      string `db:"name"`
}

// Capability is a named permission evaluated per channel/observer pair.
type Capability string

const (
	CapabilityView  Capability = "view"
	CapabilityWrite Capability = "write"
)
