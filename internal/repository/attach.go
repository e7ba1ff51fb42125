package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hubmatrix/cloudtree/internal/model"
)

var (
	ErrAttachNotFound = errors.New("attach record not found")
)

type AttachRepository interface {
	Create(att *model.Attach) error
	ByHash(channelID int64, hash string) (*model.Attach, error)
	// ByHashAny looks a record up across all channels (hotlink downloads).
	ByHashAny(hash string) (*model.Attach, error)
	// ByName returns every record with the given parent and filename,
	// most recently edited first. Permission-shadowed duplicates are the
	// caller's concern.
	ByName(channelID int64, folder, filename string) ([]*model.Attach, error)
	// Children returns all records under a parent hash, most recently
	// edited first.
	Children(channelID int64, folder string) ([]*model.Attach, error)
	UpdateFilename(channelID int64, hash, filename string) error
	// UpdateSize records the outcome of the initial blob write.
	UpdateSize(channelID int64, hash string, size int64, edited time.Time) error
	// UpdateContent is UpdateSize plus a revision bump, used on overwrite.
	UpdateContent(channelID int64, hash string, size int64, edited time.Time) error
	TouchEdited(channelID int64, hash string, edited time.Time) error
	Delete(channelID int64, hash string) error
	// LatestEdited reports the newest edited timestamp among a folder's
	// direct children; ok is false when the folder has none.
	LatestEdited(channelID int64, folder string) (time.Time, bool, error)
	// UsageByAccount sums sizes across every channel of an account.
	UsageByAccount(accountID int64) (int64, error)
}

type attachRepository struct {
	db *sqlx.DB
}

func NewAttachRepository(db *sqlx.DB) AttachRepository {
	return &attachRepository{db: db}
}

func (r *attachRepository) Create(att *model.Attach) error {
	query := `INSERT INTO attach (channel_id, account_id, hash, creator, filename, folder, is_dir, mimetype, size, revision, allow_cid, allow_gid, deny_cid, deny_gid, created, edited)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	res, err := r.db.Exec(query,
		att.ChannelID,
		att.AccountID,
		att.Hash,
		att.Creator,
		att.Filename,
		att.Folder,
		att.IsDir,
		att.Mimetype,
		att.Size,
		att.Revision,
		att.AllowCID,
		att.AllowGID,
		att.DenyCID,
		att.DenyGID,
		att.Created,
		att.Edited,
	)
	if err != nil {
		return err
	}

	att.ID, err = res.LastInsertId()
	return err
}

func (r *attachRepository) ByHash(channelID int64, hash string) (*model.Attach, error) {
	att := &model.Attach{}
	query := `SELECT * FROM attach WHERE channel_id = $1 AND hash = $2`

	err := r.db.Get(att, query, channelID, hash)
	if err == sql.ErrNoRows {
		return nil, ErrAttachNotFound
	}

	return att, err
}

func (r *attachRepository) ByHashAny(hash string) (*model.Attach, error) {
	att := &model.Attach{}
	query := `SELECT * FROM attach WHERE hash = $1 ORDER BY edited DESC LIMIT 1`

	err := r.db.Get(att, query, hash)
	if err == sql.ErrNoRows {
		return nil, ErrAttachNotFound
	}

	return att, err
}

func (r *attachRepository) ByName(channelID int64, folder, filename string) ([]*model.Attach, error) {
	var atts []*model.Attach
	query := `SELECT * FROM attach WHERE channel_id = $1 AND folder = $2 AND filename = $3 ORDER BY edited DESC, id DESC`

	err := r.db.Select(&atts, query, channelID, folder, filename)
	if err != nil {
		return nil, err
	}

	return atts, nil
}

func (r *attachRepository) Children(channelID int64, folder string) ([]*model.Attach, error) {
	var atts []*model.Attach
	query := `SELECT * FROM attach WHERE channel_id = $1 AND folder = $2 ORDER BY edited DESC, id DESC`

	err := r.db.Select(&atts, query, channelID, folder)
	if err != nil {
		return nil, err
	}

	return atts, nil
}

func (r *attachRepository) UpdateFilename(channelID int64, hash, filename string) error {
	query := `UPDATE attach SET filename = $1 WHERE channel_id = $2 AND hash = $3`

	_, err := r.db.Exec(query, filename, channelID, hash)
	return err
}

func (r *attachRepository) UpdateSize(channelID int64, hash string, size int64, edited time.Time) error {
	query := `UPDATE attach SET size = $1, edited = $2 WHERE channel_id = $3 AND hash = $4`

	_, err := r.db.Exec(query, size, edited, channelID, hash)
	return err
}

func (r *attachRepository) UpdateContent(channelID int64, hash string, size int64, edited time.Time) error {
	query := `UPDATE attach SET size = $1, revision = revision + 1, edited = $2 WHERE channel_id = $3 AND hash = $4`

	_, err := r.db.Exec(query, size, edited, channelID, hash)
	return err
}

func (r *attachRepository) TouchEdited(channelID int64, hash string, edited time.Time) error {
	query := `UPDATE attach SET edited = $1 WHERE channel_id = $2 AND hash = $3`

	_, err := r.db.Exec(query, edited, channelID, hash)
	return err
}

func (r *attachRepository) Delete(channelID int64, hash string) error {
	query := `DELETE FROM attach WHERE channel_id = $1 AND hash = $2`

	result, err := r.db.Exec(query, channelID, hash)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAttachNotFound
	}

	return nil
}

func (r *attachRepository) LatestEdited(channelID int64, folder string) (time.Time, bool, error) {
	var edited time.Time
	query := `SELECT edited FROM attach WHERE channel_id = $1 AND folder = $2 ORDER BY edited DESC LIMIT 1`

	err := r.db.Get(&edited, query, channelID, folder)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	return edited, true, nil
}

func (r *attachRepository) UsageByAccount(accountID int64) (int64, error) {
	var total sql.NullInt64
	query := `SELECT SUM(size) FROM attach WHERE account_id = $1`

	err := r.db.Get(&total, query, accountID)
	if err != nil {
		return 0, err
	}

	return total.Int64, nil
}
