package model

import (
	"time"
)

// Attach is the single persisted row type for both files and directories,
// disambiguated by IsDir. A directory's durable identity is its content
// hash; Folder holds the parent directory's hash ("" = channel root), so
// renaming a directory never touches its descendants.
type Attach struct {
	ID        int64     `db:"id"`
	ChannelID int64     `db:"channel_id"`
	AccountID int64     `db:"account_id"` // denormalized for quota sums
	Hash      string    `db:"hash"`
	Creator   string    `db:"creator"` // observer hash of the uploader
	Filename  string    `db:"filename"`
	Folder    string    `db:"folder"`
	IsDir     bool      `db:"is_dir"`
	Mimetype  string    `db:"mimetype"`
	Size      int64     `db:"size"`
	Revision  int64     `db:"revision"`
	AllowCID  string    `db:"allow_cid"`
	AllowGID  string    `db:"allow_gid"`
	DenyCID   string    `db:"deny_cid"`
	DenyGID   string    `db:"deny_gid"`
	Created   time.Time `db:"created"`
	Edited    time.Time `db:"edited"`
}

// Restricted reports whether the row carries its own ACL. When all four
// lists are empty the owning channel's defaults apply instead.
func (a *Attach) Restricted() bool {
	return a.AllowCID != "" || a.AllowGID != "" || a.DenyCID != "" || a.DenyGID != ""
}
