package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/hubmatrix/cloudtree/internal/model"
)

// PermRuleRepository stores capability grants per channel. A rule with an
// empty observer hash grants the capability to everyone, anonymous
// visitors included.
type PermRuleRepository interface {
	Grant(channelID int64, capability model.Capability, observerHash string) error
	Revoke(channelID int64, capability model.Capability, observerHash string) error
	Allowed(channelID int64, capability model.Capability, observerHash string) (bool, error)
}

type permRuleRepository struct {
	db *sqlx.DB
}

func NewPermRuleRepository(db *sqlx.DB) PermRuleRepository {
	return &permRuleRepository{db: db}
}

func (r *permRuleRepository) Grant(channelID int64, capability model.Capability, observerHash string) error {
	query := `INSERT INTO perm_rule (channel_id, capability, observer_hash) VALUES ($1, $2, $3)
	          ON CONFLICT DO NOTHING`

	_, err := r.db.Exec(query, channelID, string(capability), observerHash)
	return err
}

func (r *permRuleRepository) Revoke(channelID int64, capability model.Capability, observerHash string) error {
	query := `DELETE FROM perm_rule WHERE channel_id = $1 AND capability = $2 AND observer_hash = $3`

	_, err := r.db.Exec(query, channelID, string(capability), observerHash)
	return err
}

func (r *permRuleRepository) Allowed(channelID int64, capability model.Capability, observerHash string) (bool, error) {
	var count int
	// The '' rule is the public grant and matches any observer.
	query := `SELECT COUNT(*) FROM perm_rule WHERE channel_id = $1 AND capability = $2 AND observer_hash IN ('', $3)`

	err := r.db.Get(&count, query, channelID, string(capability), observerHash)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
