package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/hubmatrix/cloudtree/internal/model"
)

var (
	ErrAccountNotFound = errors.New("account not found")
)

type AccountRepository interface {
	Create(account *model.Account) error
	ByID(id int64) (*model.Account, error)
	ByEmail(email string) (*model.Account, error)
}

type accountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(account *model.Account) error {
	query := `INSERT INTO account (email, salt, password_digest, status, quota_limit, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	res, err := r.db.Exec(query,
		account.Email,
		account.Salt,
		account.PasswordDigest,
		account.Status,
		account.QuotaLimit,
		account.CreatedAt,
	)
	if err != nil {
		return err
	}

	account.ID, err = res.LastInsertId()
	return err
}

func (r *accountRepository) ByID(id int64) (*model.Account, error) {
	account := &model.Account{}
	query := `SELECT * FROM account WHERE id = $1`

	err := r.db.Get(account, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}

	return account, err
}

func (r *accountRepository) ByEmail(email string) (*model.Account, error) {
	account := &model.Account{}
	query := `SELECT * FROM account WHERE email = $1`

	err := r.db.Get(account, query, email)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}

	return account, err
}
