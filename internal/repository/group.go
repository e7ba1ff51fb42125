package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/hubmatrix/cloudtree/internal/model"
)

var (
	ErrGroupNotFound = errors.New("group not found")
)

type GroupRepository interface {
	Create(group *model.Group) error
	ByHash(hash string) (*model.Group, error)
	ByChannel(channelID int64) ([]*model.Group, error)
	AddMember(groupID int64, memberHash string) error
	// MemberOf returns the hashes of every group of the given channel the
	// observer belongs to.
	MemberOf(channelID int64, memberHash string) ([]string, error)
}

type groupRepository struct {
	db *sqlx.DB
}

func NewGroupRepository(db *sqlx.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) Create(group *model.Group) error {
	query := `INSERT INTO channel_group (channel_id, hash, name) VALUES ($1, $2, $3)`

	res, err := r.db.Exec(query, group.ChannelID, group.Hash, group.Name)
	if err != nil {
		return err
	}

	group.ID, err = res.LastInsertId()
	return err
}

func (r *groupRepository) ByHash(hash string) (*model.Group, error) {
	group := &model.Group{}
	query := `SELECT * FROM channel_group WHERE hash = $1`

	err := r.db.Get(group, query, hash)
	if err == sql.ErrNoRows {
		return nil, ErrGroupNotFound
	}

	return group, err
}

func (r *groupRepository) ByChannel(channelID int64) ([]*model.Group, error) {
	var groups []*model.Group
	query := `SELECT * FROM channel_group WHERE channel_id = $1 ORDER BY name`

	err := r.db.Select(&groups, query, channelID)
	if err != nil {
		return nil, err
	}

	return groups, nil
}

func (r *groupRepository) AddMember(groupID int64, memberHash string) error {
	query := `INSERT INTO group_member (group_id, member_hash) VALUES ($1, $2)
	          ON CONFLICT DO NOTHING`

	_, err := r.db.Exec(query, groupID, memberHash)
	return err
}

func (r *groupRepository) MemberOf(channelID int64, memberHash string) ([]string, error) {
	var hashes []string
	query := `SELECT g.hash FROM channel_group g
	          JOIN group_member m ON m.group_id = g.id
	          WHERE g.channel_id = $1 AND m.member_hash = $2`

	err := r.db.Select(&hashes, query, channelID, memberHash)
	if err != nil {
		return nil, err
	}

	return hashes, nil
}
