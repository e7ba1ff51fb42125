package service

import (
	"errors"
	"testing"
	"time"

	"github.com/hubmatrix/cloudtree/internal/model"
)

func TestResolveChannelRoot(t *testing.T) {
	f := newFixture(t)
	account := f.seedAccount("alice@example.com", "secret", 0)
	ch := f.seedChannel(account, "alice")

	node, err := f.tree.Resolve(ownerSession(ch), "alice")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !node.IsDir() {
		t.Fatal("channel root should be a directory")
	}
	if node.Name() != "alice" {
		t.Fatalf("name = %q, want alice", node.Name())
	}
}

func TestResolveNestedFile(t *testing.T) {
	f := newFixture(t)
	account := f.seedAccount("alice@example.com", "secret", 0)
	ch := f.seedChannel(account, "alice")

	docs := f.seedAttach(ch, &model.Attach{Filename: "docs", IsDir: true})
	report := f.seedAttach(ch, &model.Attach{Filename: "report.txt", Folder: docs.Hash, Mimetype: "text/plain"})
	f.seedBlob(ch, report, "quarterly numbers")

	node, err := f.tree.Resolve(ownerSession(ch), "alice/docs/report.txt")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	file, ok := node.(*File)
	if !ok {
		t.Fatalf("resolved %T, want *File", node)
	}
	if file.Hash() != report.Hash {
		t.Fatalf("hash = %q, want %q", file.Hash(), report.Hash)
	}
	if file.ContentType() != "text/plain" {
		t.Fatalf("content type = %q", file.ContentType())
	}
}

func TestResolveUnknownChannel(t *testing.T) {
	f := newFixture(t)

	_, err := f.tree.Resolve(anonSession(), "nobody/file.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveMissingEntry(t *testing.T) {
	f := newFixture(t)
	account := f.seedAccount("alice@example.com", "secret", 0)
	ch := f.seedChannel(account, "alice")

	_, err := f.tree.Resolve(ownerSession(ch), "alice/ghost.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// A channel-level view denial hides entries that carry no ACL of their
// own, and the caller can still tell that from a genuinely missing name.
func TestResolveForbiddenVsNotFound(t *testing.T) {
	f := newFixture(t)
	account := f.seedAccount("alice@example.com", "secret", 0)
	ch := f.seedChannel(account, "alice")
	f.seedAttach(ch, &model.Attach{Filename: "diary.txt"})

	stranger := observerSession("stranger-hash")

	_, err := f.tree.Resolve(stranger, "alice/diary.txt")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("existing hidden entry: err = %v, want ErrForbidden", err)
	}

	_, err = f.tree.Resolve(stranger, "alice/ghost.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing entry: err = %v, want ErrNotFound", err)
	}
}

// A public view grant opens unrestricted rows but a row-level allow list
// still keeps strangers out.
func TestResolveRowACL(t *testing.T) {
	f := newFixture(t)
	account := f.seedAccount("alice@example.com", "secret", 0)
	ch := f.seedChannel(account, "alice")
	f.grant(ch, model.CapabilityView, "")

	f.seedAttach(ch, &model.Attach{Filename: "public.txt"})
	f.seedAttach(ch, &model.Attach{Filename: "private.txt", AllowCID: "friend-hash"})

	stranger := observerSession("stranger-hash")
	friend := observerSession("friend-hash")

	if _, err := f.tree.Resolve(stranger, "alice/public.txt"); err != nil {
		t.Fatalf("public row: %v", err)
	}
	if _, err := f.tree.Resolve(stranger, "alice/private.txt"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("restricted row: err = %v, want ErrForbidden", err)
	}
	if _, err := f.tree.Resolve(friend, "alice/private.txt"); err != nil {
		t.Fatalf("allowed observer: %v", err)
	}
}

func TestResolveDescendThroughFile(t *testing.T) {
	f := newFixture(t)
	account := f.seedAccount("alice@example.com", "secret", 0)
	ch := f.seedChannel(account, "alice")
	f.seedAttach(ch, &model.Attach{Filename: "notes.txt"})

	_, err := f.tree.Resolve(ownerSession(ch), "alice/notes.txt/below")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// Duplicate filenames resolve to the most recently edited row the
// observer can see.
func TestResolveDuplicateLatestWins(t *testing.T) {
	f := newFixture(t)
	account := f.seedAccount("alice@example.com", "secret", 0)
	ch := f.seedChannel(account, "alice")
	f.grant(ch, model.CapabilityView, "")

	base := time.Now().UTC().Add(-time.Hour)
	f.seedAttach(ch, &model.Attach{Filename: "dup.txt", Edited: base, Created: base})
	newer := f.seedAttach(ch, &model.Attach{Filename: "dup.txt", Edited: base.Add(time.Minute), Created: base})

	node, err := f.tree.Resolve(observerSession("visitor"), "alice/dup.txt")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if node.(*File).Hash() != newer.Hash {
		t.Fatalf("resolved hash %q, want newest %q", node.(*File).Hash(), newer.Hash)
	}

	// when the newest duplicate is hidden, the older visible one wins
	hidden := f.seedAttach(ch, &model.Attach{Filename: "dup.txt", AllowCID: "friend-hash", Edited: base.Add(2 * time.Minute), Created: base})
	node, err = f.tree.Resolve(observerSession("visitor"), "alice/dup.txt")
	if err != nil {
		t.Fatalf("resolve with hidden duplicate: %v", err)
	}
	got := node.(*File).Hash()
	if got == hidden.Hash {
		t.Fatal("resolved a hidden row")
	}
	if got != newer.Hash {
		t.Fatalf("resolved hash %q, want %q", got, newer.Hash)
	}
}

func TestExists(t *testing.T) {
	f := newFixture(t)
	account := f.seedAccount("alice@example.com", "secret", 0)
	ch := f.seedChannel(account, "alice")
	f.seedAttach(ch, &model.Attach{Filename: "diary.txt"})

	ok, err := f.tree.Exists(ownerSession(ch), "alice/diary.txt")
	if err != nil || !ok {
		t.Fatalf("owner: ok=%v err=%v, want true", ok, err)
	}

	// hidden entries count as absent, not as an error
	ok, err = f.tree.Exists(observerSession("stranger"), "alice/diary.txt")
	if err != nil || ok {
		t.Fatalf("stranger: ok=%v err=%v, want false,nil", ok, err)
	}

	ok, err = f.tree.Exists(ownerSession(ch), "alice/ghost.txt")
	if err != nil || ok {
		t.Fatalf("missing: ok=%v err=%v, want false,nil", ok, err)
	}
}

// Resolving the same path twice yields structurally identical snapshots.
func TestResolveIdempotent(t *testing.T) {
	f := newFixture(t)
	account := f.seedAccount("alice@example.com", "secret", 0)
	ch := f.seedChannel(account, "alice")
	docs := f.seedAttach(ch, &model.Attach{Filename: "docs", IsDir: true})
	f.seedAttach(ch, &model.Attach{Filename: "report.txt", Folder: docs.Hash})

	first, err := f.tree.Resolve(ownerSession(ch), "alice/docs/report.txt")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := f.tree.Resolve(ownerSession(ch), "alice/docs/report.txt")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	a, b := first.(*File), second.(*File)
	if a.Hash() != b.Hash() || a.Name() != b.Name() || a.rec.Folder != b.rec.Folder {
		t.Fatalf("snapshots differ: %+v vs %+v", a.rec, b.rec)
	}
	if a.rec.Folder != docs.Hash {
		t.Fatalf("folder chain = %q, want %q", a.rec.Folder, docs.Hash)
	}
}

func TestOpenByHash(t *testing.T) {
	f := newFixture(t)
	account := f.seedAccount("alice@example.com", "secret", 0)
	ch := f.seedChannel(account, "alice")
	f.grant(ch, model.CapabilityView, "")

	rec := f.seedAttach(ch, &model.Attach{Filename: "photo.jpg", Mimetype: "image/jpeg"})
	f.seedBlob(ch, rec, "jpeg bytes")

	file, err := f.tree.OpenByHash(observerSession("visitor"), rec.Hash)
	if err != nil {
		t.Fatalf("open by hash: %v", err)
	}
	if file.Name() != "photo.jpg" {
		t.Fatalf("name = %q", file.Name())
	}

	if _, err := f.tree.OpenByHash(anonSession(), "no-such-hash"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown hash: err = %v, want ErrNotFound", err)
	}

	restricted := f.seedAttach(ch, &model.Attach{Filename: "secret.jpg", AllowCID: "friend-hash"})
	f.seedBlob(ch, restricted, "hidden bytes")
	if _, err := f.tree.OpenByHash(observerSession("visitor"), restricted.Hash); !errors.Is(err, ErrForbidden) {
		t.Fatalf("restricted hash: err = %v, want ErrForbidden", err)
	}
}
