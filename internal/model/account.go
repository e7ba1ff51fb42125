package model

import (
	"time"
)

const (
	AccountStatusOK         = "ok"
	AccountStatusUnverified = "unverified"
	AccountStatusBlocked    = "blocked"
)

// Account is the billing/login entity. Several channels may share one
// account; storage quotas are enforced per account, not per channel.
type Account struct {
	ID             int64     `db:"id"`
	Email          string    `db:"email"`
	Salt           string    `db:"salt"`
	PasswordDigest string    `db:"password_digest"`
	Status         string    `db:"status"`
	QuotaLimit     int64     `db:"quota_limit"` // bytes, 0 = use configured default
	CreatedAt      time.Time `db:"created_at"`
}

func (a *Account) CanLogin() bool {
	return a.Status == AccountStatusOK || a.Status == AccountStatusUnverified
}
