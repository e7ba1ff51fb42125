package storage

import (
	"io"
	"strings"
	"testing"
)

func TestMemoryStorageRoundTrip(t *testing.T) {
	m := NewMemoryStorage()

	size, err := m.Save("1/abc", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if size != int64(len("payload")) {
		t.Fatalf("size = %d", size)
	}

	rc, err := m.Open("1/abc")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if string(got) != "payload" {
		t.Fatalf("content = %q", got)
	}

	if err := m.Delete("1/abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if m.Has("1/abc") {
		t.Fatal("blob survived delete")
	}
	if _, err := m.Open("1/abc"); err == nil {
		t.Fatal("open after delete succeeded")
	}
}

func TestMemoryStorageFailWrites(t *testing.T) {
	m := NewMemoryStorage()
	m.FailWrites = true

	if _, err := m.Save("1/abc", strings.NewReader("x")); err == nil {
		t.Fatal("expected write failure")
	}
	if m.Has("1/abc") {
		t.Fatal("failed write stored a blob")
	}
}
