package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/hubmatrix/cloudtree/internal/model"
	"github.com/hubmatrix/cloudtree/internal/validation"
)

// DirMimetype marks directory rows in the attach table.
const DirMimetype = "multipart/mixed"

// Directory is a resolved collection node. rec is nil for the channel
// root, which is not an attach row of its own.
type Directory struct {
	svc     *TreeService
	sess    *model.Session
	channel *model.Channel
	rec     *model.Attach
}

func (d *Directory) Name() string {
	if d.rec == nil {
		return d.channel.Address
	}
	return d.rec.Filename
}

func (d *Directory) IsDir() bool { return true }

// folder is the hash children of this directory carry in their folder
// column; empty string for the channel root.
func (d *Directory) folder() string {
	if d.rec == nil {
		return ""
	}
	return d.rec.Hash
}

// LastModified is the newest edit among direct children, falling back to
// the directory's own timestamp when it is empty.
func (d *Directory) LastModified() (time.Time, error) {
	edited, ok, err := d.svc.attach.LatestEdited(d.channel.ID, d.folder())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load latest edit: %w", err)
	}
	if ok {
		return edited, nil
	}
	if d.rec != nil {
		return d.rec.Edited, nil
	}
	return d.channel.Created, nil
}

// Children lists the entries the observer may see. Listing at all
// requires the channel-level view capability; a denied observer gets
// ErrForbidden, never an empty listing. Duplicate filenames collapse to
// one node each, most recently edited visible row first.
func (d *Directory) Children() ([]Node, error) {
	channelView, err := d.svc.perms.Allowed(d.channel.ID, d.sess.Observer, model.CapabilityView)
	if err != nil {
		return nil, err
	}
	owner := d.sess.ChannelID == d.channel.ID && d.sess.ChannelID != 0
	if !channelView && !owner {
		return nil, ErrForbidden
	}

	recs, err := d.svc.attach.Children(d.channel.ID, d.folder())
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}

	var nodes []Node
	seen := map[string]bool{}
	for _, rec := range recs {
		if seen[rec.Filename] {
			continue
		}
		visible, err := d.svc.visible(d.sess, d.channel, rec, channelView)
		if err != nil {
			return nil, err
		}
		if !visible {
			continue
		}
		seen[rec.Filename] = true
		nodes = append(nodes, d.svc.node(d.sess, d.channel, rec))
	}

	return nodes, nil
}

// Child resolves a single named entry of this directory.
func (d *Directory) Child(name string) (Node, error) {
	channelView, err := d.svc.perms.Allowed(d.channel.ID, d.sess.Observer, model.CapabilityView)
	if err != nil {
		return nil, err
	}

	rec, err := d.svc.lookup(d.sess, d.channel, d.folder(), name, channelView)
	if err != nil {
		return nil, err
	}

	return d.svc.node(d.sess, d.channel, rec), nil
}

// ChildExists reports presence as the observer sees it; entries hidden by
// ACL count as absent rather than forbidden.
func (d *Directory) ChildExists(name string) (bool, error) {
	_, err := d.Child(name)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateFile stores content as a new child, or replaces the newest
// visible record of the same name when overwrite is set. It returns the
// attach hash of the written record.
//
// Size and quota limits are enforced after the blob is written, because
// the incoming reader's length is unknown up front; an oversize write is
// rolled back by deleting both the record and the blob.
func (d *Directory) CreateFile(name string, content io.Reader, overwrite bool) (string, error) {
	ok, err := d.svc.canWrite(d.sess, d.channel)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrForbidden
	}

	if err := validation.ValidateFilename(name); err != nil {
		return "", err
	}

	var existing *model.Attach
	if overwrite {
		channelView, err := d.svc.perms.Allowed(d.channel.ID, d.sess.Observer, model.CapabilityView)
		if err != nil {
			return "", err
		}
		rec, err := d.svc.lookup(d.sess, d.channel, d.folder(), name, channelView)
		switch {
		case err == nil:
			if rec.IsDir {
				return "", ErrExists
			}
			existing = rec
		case errors.Is(err, ErrNotFound):
			// fresh upload
		default:
			return "", err
		}
	}

	now := time.Now().UTC()
	var rec *model.Attach
	var size int64

	if existing != nil {
		size, err = d.svc.store.Save(blobKey(d.channel.ID, existing.Hash), content)
		if err != nil {
			return "", fmt.Errorf("failed to store file content: %w", err)
		}
		if err := d.svc.attach.UpdateContent(d.channel.ID, existing.Hash, size, now); err != nil {
			return "", fmt.Errorf("failed to update file record: %w", err)
		}
		rec = existing
	} else {
		rec = &model.Attach{
			ChannelID: d.channel.ID,
			AccountID: d.channel.AccountID,
			Hash:      uuid.NewString(),
			Creator:   d.sess.Observer,
			Filename:  name,
			Folder:    d.folder(),
			Mimetype:  detectMimetype(name),
			AllowCID:  d.channel.AllowCID,
			AllowGID:  d.channel.AllowGID,
			DenyCID:   d.channel.DenyCID,
			DenyGID:   d.channel.DenyGID,
			Created:   now,
			Edited:    now,
		}
		if err := d.svc.attach.Create(rec); err != nil {
			return "", fmt.Errorf("failed to create file record: %w", err)
		}

		size, err = d.svc.store.Save(blobKey(d.channel.ID, rec.Hash), content)
		if err != nil {
			// blob write failed; take the record back out so the tree
			// never points at missing content
			if derr := d.svc.attach.Delete(d.channel.ID, rec.Hash); derr != nil {
				slog.Error("failed to remove record after blob write failure", "hash", rec.Hash, "error", derr)
			}
			return "", fmt.Errorf("failed to store file content: %w", err)
		}
		if err := d.svc.attach.UpdateSize(d.channel.ID, rec.Hash, size, now); err != nil {
			return "", fmt.Errorf("failed to update file record: %w", err)
		}
	}
	rec.Size = size
	rec.Edited = now

	if d.folder() != "" {
		if err := d.svc.attach.TouchEdited(d.channel.ID, d.folder(), now); err != nil {
			slog.Warn("failed to touch parent directory", "folder", d.folder(), "error", err)
		}
	}

	if d.svc.maxFileSize > 0 && size > d.svc.maxFileSize {
		if err := d.svc.removeAttach(d.channel, rec); err != nil {
			slog.Error("failed to remove oversize file", "hash", rec.Hash, "error", err)
		}
		return "", ErrFileSizeLimit
	}

	if err := d.enforceQuota(rec); err != nil {
		return "", err
	}

	return rec.Hash, nil
}

// enforceQuota removes the just-written record when the account's usage
// has gone over its limit.
func (d *Directory) enforceQuota(rec *model.Attach) error {
	limit, err := d.svc.quotaLimit(d.channel.AccountID)
	if err != nil {
		return err
	}
	if limit <= 0 {
		return nil
	}

	used, err := d.svc.attach.UsageByAccount(d.channel.AccountID)
	if err != nil {
		return fmt.Errorf("failed to compute account usage: %w", err)
	}
	if used <= limit {
		return nil
	}

	slog.Info("upload rejected by quota",
		"account_id", d.channel.AccountID,
		"used", humanize.Bytes(uint64(used)),
		"limit", humanize.Bytes(uint64(limit)),
	)
	if err := d.svc.removeAttach(d.channel, rec); err != nil {
		slog.Error("failed to remove over-quota file", "hash", rec.Hash, "error", err)
	}
	return ErrQuotaExceeded
}

// CreateDirectory adds a child collection. A visible entry of the same
// name, file or directory, blocks creation.
func (d *Directory) CreateDirectory(name string) (*Directory, error) {
	ok, err := d.svc.canWrite(d.sess, d.channel)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	if err := validation.ValidateFilename(name); err != nil {
		return nil, err
	}

	exists, err := d.ChildExists(name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrExists
	}

	now := time.Now().UTC()
	rec := &model.Attach{
		ChannelID: d.channel.ID,
		AccountID: d.channel.AccountID,
		Hash:      uuid.NewString(),
		Creator:   d.sess.Observer,
		Filename:  name,
		Folder:    d.folder(),
		IsDir:     true,
		Mimetype:  DirMimetype,
		AllowCID:  d.channel.AllowCID,
		AllowGID:  d.channel.AllowGID,
		DenyCID:   d.channel.DenyCID,
		DenyGID:   d.channel.DenyGID,
		Created:   now,
		Edited:    now,
	}
	if err := d.svc.attach.Create(rec); err != nil {
		return nil, fmt.Errorf("failed to create directory record: %w", err)
	}

	if d.folder() != "" {
		if err := d.svc.attach.TouchEdited(d.channel.ID, d.folder(), now); err != nil {
			slog.Warn("failed to touch parent directory", "folder", d.folder(), "error", err)
		}
	}

	return &Directory{svc: d.svc, sess: d.sess, channel: d.channel, rec: rec}, nil
}

// Rename changes the directory's filename. The channel root has no attach
// row and cannot be renamed.
func (d *Directory) Rename(newName string) error {
	if d.rec == nil {
		return ErrForbidden
	}
	return d.svc.rename(d.sess, d.channel, d.rec, newName)
}

// Delete removes the directory row. Children keep their rows but become
// unreachable by path; callers wanting a full recursive delete remove the
// children first.
func (d *Directory) Delete() error {
	if d.rec == nil {
		return ErrForbidden
	}

	ok, err := d.svc.canWrite(d.sess, d.channel)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}

	return d.svc.removeAttach(d.channel, d.rec)
}

// Quota reports the account's byte usage and remaining room. free is -1
// when no limit is configured.
func (d *Directory) Quota() (used, free int64, err error) {
	used, err = d.svc.attach.UsageByAccount(d.channel.AccountID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute account usage: %w", err)
	}

	limit, err := d.svc.quotaLimit(d.channel.AccountID)
	if err != nil {
		return 0, 0, err
	}
	if limit <= 0 {
		return used, -1, nil
	}

	free = limit - used
	if free < 0 {
		free = 0
	}
	return used, free, nil
}

func (s *TreeService) quotaLimit(accountID int64) (int64, error) {
	account, err := s.accounts.ByID(accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to load account: %w", err)
	}
	if account.QuotaLimit > 0 {
		return account.QuotaLimit, nil
	}
	return s.defaultQuota, nil
}

func (s *TreeService) node(sess *model.Session, ch *model.Channel, rec *model.Attach) Node {
	if rec.IsDir {
		return &Directory{svc: s, sess: sess, channel: ch, rec: rec}
	}
	return &File{svc: s, sess: sess, channel: ch, rec: rec}
}

func (s *TreeService) rename(sess *model.Session, ch *model.Channel, rec *model.Attach, newName string) error {
	ok, err := s.canWrite(sess, ch)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}

	if err := validation.ValidateFilename(newName); err != nil {
		return err
	}

	if err := s.attach.UpdateFilename(ch.ID, rec.Hash, newName); err != nil {
		return fmt.Errorf("failed to rename: %w", err)
	}
	rec.Filename = newName
	return nil
}

// removeAttach deletes the row and then the blob. A blob left behind is
// unreachable garbage, not an integrity problem, so its failure is only
// logged.
func (s *TreeService) removeAttach(ch *model.Channel, rec *model.Attach) error {
	if err := s.attach.Delete(ch.ID, rec.Hash); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	if !rec.IsDir {
		if err := s.store.Delete(blobKey(ch.ID, rec.Hash)); err != nil {
			slog.Warn("failed to delete blob", "hash", rec.Hash, "error", err)
		}
	}

	return nil
}

func detectMimetype(name string) string {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if t == "" {
		return "application/octet-stream"
	}
	return t
}
