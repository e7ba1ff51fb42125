package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/hubmatrix/cloudtree/internal/model"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
)

type ChannelRepository interface {
	Create(channel *model.Channel) error
	// ByID and ByAddress exclude soft-deleted (removed) channels; a removed
	// channel is indistinguishable from a missing one.
	ByID(id int64) (*model.Channel, error)
	ByAddress(address string) (*model.Channel, error)
	// AllVisible returns channels that are neither removed nor hidden.
	AllVisible() ([]*model.Channel, error)
}

type channelRepository struct {
	db *sqlx.DB
}

func NewChannelRepository(db *sqlx.DB) ChannelRepository {
	return &channelRepository{db: db}
}

func (r *channelRepository) Create(channel *model.Channel) error {
	query := `INSERT INTO channel (account_id, address, hash, timezone, removed, hidden, allow_cid, allow_gid, deny_cid, deny_gid, created)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	res, err := r.db.Exec(query,
		channel.AccountID,
		channel.Address,
		channel.Hash,
		channel.Timezone,
		channel.Removed,
		channel.Hidden,
		channel.AllowCID,
		channel.AllowGID,
		channel.DenyCID,
		channel.DenyGID,
		channel.Created,
	)
	if err != nil {
		return err
	}

	channel.ID, err = res.LastInsertId()
	return err
}

func (r *channelRepository) ByID(id int64) (*model.Channel, error) {
	channel := &model.Channel{}
	query := `SELECT * FROM channel WHERE id = $1 AND NOT removed`

	err := r.db.Get(channel, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrChannelNotFound
	}

	return channel, err
}

func (r *channelRepository) ByAddress(address string) (*model.Channel, error) {
	channel := &model.Channel{}
	query := `SELECT * FROM channel WHERE address = $1 AND NOT removed`

	err := r.db.Get(channel, query, address)
	if err == sql.ErrNoRows {
		return nil, ErrChannelNotFound
	}

	return channel, err
}

func (r *channelRepository) AllVisible() ([]*model.Channel, error) {
	var channels []*model.Channel
	query := `SELECT * FROM channel WHERE NOT removed AND NOT hidden ORDER BY address`

	err := r.db.Select(&channels, query)
	if err != nil {
		return nil, err
	}

	return channels, nil
}
