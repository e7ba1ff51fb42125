package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hubmatrix/cloudtree/internal/model"
)

func TestLogin(t *testing.T) {
	f := newFixture(t)
	account := f.seedAccount("alice@example.com", "hunter2", 0)
	ch := f.seedChannel(account, "alice")

	got, err := f.identity.Login("alice", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != ch.ID {
		t.Fatalf("logged into channel %d, want %d", got.ID, ch.ID)
	}

	// address matching is case-insensitive
	if _, err := f.identity.Login(" ALICE ", "hunter2"); err != nil {
		t.Fatalf("case-insensitive login: %v", err)
	}

	if _, err := f.identity.Login("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := f.identity.Login("nobody", "hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown address: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginBlockedAccount(t *testing.T) {
	f := newFixture(t)
	account := f.seedAccount("alice@example.com", "hunter2", 0)
	f.seedChannel(account, "alice")

	if _, err := f.db.Exec(`UPDATE account SET status = $1 WHERE id = $2`, model.AccountStatusBlocked, account.ID); err != nil {
		t.Fatalf("block account: %v", err)
	}

	if _, err := f.identity.Login("alice", "hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("blocked account: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestFromRequestBasicAuth(t *testing.T) {
	f := newFixture(t)
	account := f.seedAccount("alice@example.com", "hunter2", 0)
	ch := f.seedChannel(account, "alice")

	r := httptest.NewRequest("GET", "/cloud/alice", nil)
	r.SetBasicAuth("alice", "hunter2")

	sess := f.identity.FromRequest(r)
	if !sess.LoggedIn() {
		t.Fatal("valid basic auth did not log in")
	}
	if sess.Observer != ch.Hash {
		t.Fatalf("observer = %q, want channel hash %q", sess.Observer, ch.Hash)
	}

	// bad credentials degrade to anonymous, never to an error
	r = httptest.NewRequest("GET", "/cloud/alice", nil)
	r.SetBasicAuth("alice", "wrong")
	sess = f.identity.FromRequest(r)
	if !sess.Anonymous() {
		t.Fatal("bad basic auth produced a non-anonymous session")
	}
}

// The "+++" password is the guest convention: it skips credential
// validation entirely and yields an anonymous session, regardless of the
// username sent with it.
func TestFromRequestGuestSentinel(t *testing.T) {
	f := newFixture(t)
	account := f.seedAccount("alice@example.com", "hunter2", 0)
	f.seedChannel(account, "alice")

	r := httptest.NewRequest("GET", "/cloud/alice", nil)
	r.SetBasicAuth("alice", "+++")

	sess := f.identity.FromRequest(r)
	if !sess.Anonymous() {
		t.Fatalf("guest session observer = %q, want anonymous", sess.Observer)
	}
	if sess.LoggedIn() {
		t.Fatal("guest sentinel logged in")
	}
}

func TestFromRequestSessionCookie(t *testing.T) {
	f := newFixture(t)
	account := f.seedAccount("alice@example.com", "hunter2", 0)
	ch := f.seedChannel(account, "alice")

	token, err := f.identity.GenerateJWT(ch)
	if err != nil {
		t.Fatalf("generate jwt: %v", err)
	}

	w := httptest.NewRecorder()
	f.identity.SetSessionCookie(w, token, time.Now().Add(time.Hour))

	r := httptest.NewRequest("GET", "/cloud/alice", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}

	sess := f.identity.FromRequest(r)
	if sess.ChannelID != ch.ID {
		t.Fatalf("channel id = %d, want %d", sess.ChannelID, ch.ID)
	}
	if sess.Observer != ch.Hash {
		t.Fatalf("observer = %q, want %q", sess.Observer, ch.Hash)
	}
}

func TestFromRequestBadToken(t *testing.T) {
	f := newFixture(t)

	r := httptest.NewRequest("GET", "/cloud", nil)
	r.AddCookie(&http.Cookie{Name: "session_token", Value: "not-a-jwt"})

	sess := f.identity.FromRequest(r)
	if !sess.Anonymous() {
		t.Fatal("garbage token produced a non-anonymous session")
	}
}

func TestFromRequestNoCredentials(t *testing.T) {
	f := newFixture(t)

	sess := f.identity.FromRequest(httptest.NewRequest("GET", "/cloud", nil))
	if !sess.Anonymous() || sess.LoggedIn() {
		t.Fatal("bare request should be anonymous")
	}
}
