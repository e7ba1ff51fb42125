package service

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hubmatrix/cloudtree/internal/db"
	"github.com/hubmatrix/cloudtree/internal/model"
	"github.com/hubmatrix/cloudtree/internal/repository"
	"github.com/hubmatrix/cloudtree/internal/storage"
)

// fixture wires the full service stack over a fresh in-memory database
// and in-memory blob storage.
type fixture struct {
	t *testing.T

	db       *sqlx.DB
	accounts repository.AccountRepository
	channels repository.ChannelRepository
	attach   repository.AttachRepository
	rules    repository.PermRuleRepository
	groups   repository.GroupRepository
	store    *storage.MemoryStorage

	perms      *PermissionService
	tree       *TreeService
	root       *RootService
	principals *PrincipalService
	identity   *IdentityService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	// a named shared-cache DB so every pooled connection sees the same data
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	database, err := db.Init("sqlite", dsn)
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := db.RunMigrations(database.DB, "sqlite"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &fixture{
		t:        t,
		db:       database,
		accounts: repository.NewAccountRepository(database),
		channels: repository.NewChannelRepository(database),
		attach:   repository.NewAttachRepository(database),
		rules:    repository.NewPermRuleRepository(database),
		groups:   repository.NewGroupRepository(database),
		store:    storage.NewMemoryStorage(),
	}
	f.perms = NewPermissionService(f.channels, f.rules, f.groups)
	f.tree = NewTreeService(f.channels, f.accounts, f.attach, f.perms, f.store, 0, 0)
	f.root = NewRootService(f.channels, f.perms, f.tree, false)
	f.principals = NewPrincipalService(f.channels, f.groups)
	f.identity = NewIdentityService(f.accounts, f.channels, "test-secret", time.Hour, false)
	return f
}

// newTree builds an alternate TreeService with explicit limits.
func (f *fixture) newTree(maxFileSize, defaultQuota int64) *TreeService {
	return NewTreeService(f.channels, f.accounts, f.attach, f.perms, f.store, maxFileSize, defaultQuota)
}

func (f *fixture) seedAccount(email, password string, quota int64) *model.Account {
	f.t.Helper()

	salt, err := GenerateSalt()
	if err != nil {
		f.t.Fatalf("generate salt: %v", err)
	}
	account := &model.Account{
		Email:          email,
		Salt:           salt,
		PasswordDigest: HashPassword(password, salt),
		Status:         model.AccountStatusOK,
		QuotaLimit:     quota,
		CreatedAt:      time.Now().UTC(),
	}
	if err := f.accounts.Create(account); err != nil {
		f.t.Fatalf("seed account: %v", err)
	}
	return account
}

func (f *fixture) seedChannel(account *model.Account, address string) *model.Channel {
	f.t.Helper()

	ch := &model.Channel{
		AccountID: account.ID,
		Address:   address,
		Hash:      uuid.NewString(),
		Timezone:  "UTC",
		Created:   time.Now().UTC().Add(-time.Hour).Truncate(time.Second),
	}
	if err := f.channels.Create(ch); err != nil {
		f.t.Fatalf("seed channel: %v", err)
	}
	return ch
}

// seedAttach fills defaults and persists the row.
func (f *fixture) seedAttach(ch *model.Channel, att *model.Attach) *model.Attach {
	f.t.Helper()

	att.ChannelID = ch.ID
	att.AccountID = ch.AccountID
	if att.Hash == "" {
		att.Hash = uuid.NewString()
	}
	if att.Mimetype == "" {
		if att.IsDir {
			att.Mimetype = DirMimetype
		} else {
			att.Mimetype = "application/octet-stream"
		}
	}
	if att.Created.IsZero() {
		att.Created = time.Now().UTC().Truncate(time.Second)
	}
	if att.Edited.IsZero() {
		att.Edited = att.Created
	}
	if err := f.attach.Create(att); err != nil {
		f.t.Fatalf("seed attach: %v", err)
	}
	return att
}

// seedBlob stores content for an existing row and records its size.
func (f *fixture) seedBlob(ch *model.Channel, att *model.Attach, content string) {
	f.t.Helper()

	size, err := f.store.Save(blobKey(ch.ID, att.Hash), strings.NewReader(content))
	if err != nil {
		f.t.Fatalf("seed blob: %v", err)
	}
	if err := f.attach.UpdateSize(ch.ID, att.Hash, size, att.Edited); err != nil {
		f.t.Fatalf("seed blob size: %v", err)
	}
	att.Size = size
}

func (f *fixture) grant(ch *model.Channel, capability model.Capability, observer string) {
	f.t.Helper()
	if err := f.rules.Grant(ch.ID, capability, observer); err != nil {
		f.t.Fatalf("grant: %v", err)
	}
}

func (f *fixture) seedGroup(ch *model.Channel, name string, members ...string) *model.Group {
	f.t.Helper()

	g := &model.Group{ChannelID: ch.ID, Hash: uuid.NewString(), Name: name}
	if err := f.groups.Create(g); err != nil {
		f.t.Fatalf("seed group: %v", err)
	}
	for _, m := range members {
		if err := f.groups.AddMember(g.ID, m); err != nil {
			f.t.Fatalf("seed group member: %v", err)
		}
	}
	return g
}

func ownerSession(ch *model.Channel) *model.Session {
	return &model.Session{
		ChannelID:      ch.ID,
		AccountID:      ch.AccountID,
		ChannelAddress: ch.Address,
		Timezone:       ch.Timezone,
		Observer:       ch.Hash,
	}
}

func observerSession(hash string) *model.Session {
	return &model.Session{Observer: hash}
}

func anonSession() *model.Session {
	return &model.Session{}
}
