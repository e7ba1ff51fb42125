package service

import (
	"errors"
	"testing"

	"github.com/hubmatrix/cloudtree/internal/model"
)

func TestRootChildren(t *testing.T) {
	f := newFixture(t)
	account := f.seedAccount("host@example.com", "secret", 0)

	public := f.seedChannel(account, "public")
	f.grant(public, model.CapabilityView, "")
	closed := f.seedChannel(account, "closed")

	hidden := f.seedChannel(account, "hidden")
	if _, err := f.db.Exec(`UPDATE channel SET hidden = TRUE WHERE id = $1`, hidden.ID); err != nil {
		t.Fatalf("hide channel: %v", err)
	}

	nodes, err := f.root.Children(anonSession())
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Name() != "public" {
		t.Fatalf("anonymous sees %v, want only public", names(nodes))
	}

	// the owner of a closed channel still sees it
	nodes, err = f.root.Children(ownerSession(closed))
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	got := names(nodes)
	if len(got) != 2 {
		t.Fatalf("owner sees %v, want public and closed", got)
	}
}

func TestRootBlockPublic(t *testing.T) {
	f := newFixture(t)
	account := f.seedAccount("host@example.com", "secret", 0)
	ch := f.seedChannel(account, "alice")
	f.grant(ch, model.CapabilityView, "")

	blocked := NewRootService(f.channels, f.perms, f.tree, true)

	if _, err := blocked.Children(anonSession()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("anonymous under block_public: err = %v, want ErrForbidden", err)
	}
	if _, err := blocked.Child(anonSession(), "alice"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("anonymous child under block_public: err = %v, want ErrForbidden", err)
	}

	if _, err := blocked.Children(ownerSession(ch)); err != nil {
		t.Fatalf("owner under block_public: %v", err)
	}
}

func TestRootChild(t *testing.T) {
	f := newFixture(t)
	account := f.seedAccount("host@example.com", "secret", 0)
	ch := f.seedChannel(account, "alice")

	node, err := f.root.Child(ownerSession(ch), "alice")
	if err != nil {
		t.Fatalf("child: %v", err)
	}
	if node.Name() != "alice" || !node.IsDir() {
		t.Fatalf("child = %q dir=%v", node.Name(), node.IsDir())
	}

	if _, err := f.root.Child(ownerSession(ch), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing child: err = %v, want ErrNotFound", err)
	}
}
