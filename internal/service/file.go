package service

import (
	"fmt"
	"io"
	"time"

	"github.com/hubmatrix/cloudtree/internal/model"
)

// File is a resolved content node backed by an attach row and a blob in
// storage.
type File struct {
	svc     *TreeService
	sess    *model.Session
	channel *model.Channel
	rec     *model.Attach
}

func (f *File) Name() string { return f.rec.Filename }
func (f *File) IsDir() bool  { return false }
func (f *File) Size() int64  { return f.rec.Size }
func (f *File) Hash() string { return f.rec.Hash }
func (f *File) Revision() int64 { return f.rec.Revision }

func (f *File) ContentType() string {
	if f.rec.Mimetype == "" {
		return "application/octet-stream"
	}
	return f.rec.Mimetype
}

func (f *File) LastModified() (time.Time, error) {
	return f.rec.Edited, nil
}

// Open streams the file's content. The caller closes the reader.
func (f *File) Open() (io.ReadCloser, error) {
	rc, err := f.svc.store.Open(blobKey(f.channel.ID, f.rec.Hash))
	if err != nil {
		return nil, fmt.Errorf("failed to open blob for %q: %w", f.rec.Filename, err)
	}
	return rc, nil
}

func (f *File) Rename(newName string) error {
	return f.svc.rename(f.sess, f.channel, f.rec, newName)
}

// Delete removes the record and blob. Requires write permission on the
// channel.
func (f *File) Delete() error {
	ok, err := f.svc.canWrite(f.sess, f.channel)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}

	return f.svc.removeAttach(f.channel, f.rec)
}
