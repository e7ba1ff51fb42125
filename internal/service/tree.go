package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hubmatrix/cloudtree/internal/model"
	"github.com/hubmatrix/cloudtree/internal/repository"
	"github.com/hubmatrix/cloudtree/internal/storage"
)

// Node is a resolved entry in a channel's file tree, either a Directory
// or a File.
type Node interface {
	Name() string
	IsDir() bool
	LastModified() (time.Time, error)
}

// TreeService resolves slash paths against the attach table and hands out
// permission-checked directory and file nodes. The first path segment is
// always a channel address; everything below it is attach rows chained by
// folder hash.
type TreeService struct {
	channels repository.ChannelRepository
	accounts repository.AccountRepository
	attach   repository.AttachRepository
	perms    *PermissionService
	store    storage.Storage

	maxFileSize  int64
	defaultQuota int64
}

func NewTreeService(channels repository.ChannelRepository, accounts repository.AccountRepository, attach repository.AttachRepository, perms *PermissionService, store storage.Storage, maxFileSize, defaultQuota int64) *TreeService {
	return &TreeService{
		channels:     channels,
		accounts:     accounts,
		attach:       attach,
		perms:        perms,
		store:        store,
		maxFileSize:  maxFileSize,
		defaultQuota: defaultQuota,
	}
}

// Resolve walks path to a node. A path whose channel does not exist, or
// that descends through a file, yields ErrNotFound; a path whose entries
// exist but are hidden from the observer yields ErrForbidden, so a caller
// can distinguish "nothing there" from "not yours to see".
func (s *TreeService) Resolve(sess *model.Session, path string) (Node, error) {
	ch, rec, err := s.resolve(sess, path)
	if err != nil {
		return nil, err
	}

	if rec == nil || rec.IsDir {
		return &Directory{svc: s, sess: sess, channel: ch, rec: rec}, nil
	}

	return &File{svc: s, sess: sess, channel: ch, rec: rec}, nil
}

// Exists reports whether path resolves for the observer. Entries the
// observer cannot see count as absent.
func (s *TreeService) Exists(sess *model.Session, path string) (bool, error) {
	_, _, err := s.resolve(sess, path)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// resolve walks the path segments. rec is nil when the path names the
// channel root itself.
func (s *TreeService) resolve(sess *model.Session, path string) (*model.Channel, *model.Attach, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil, nil, ErrNotFound
	}

	ch, err := s.channels.ByAddress(segments[0])
	if err != nil {
		if errors.Is(err, repository.ErrChannelNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to resolve channel: %w", err)
	}

	channelView, err := s.perms.Allowed(ch.ID, sess.Observer, model.CapabilityView)
	if err != nil {
		return nil, nil, err
	}

	var rec *model.Attach
	folder := ""
	for i, name := range segments[1:] {
		if i > 0 && !rec.IsDir {
			// descending through a file: nothing below it can exist
			return nil, nil, ErrNotFound
		}
		if rec != nil {
			folder = rec.Hash
		}

		rec, err = s.lookup(sess, ch, folder, name, channelView)
		if err != nil {
			return nil, nil, err
		}
	}

	return ch, rec, nil
}

// lookup finds the entry named name under folder. Duplicate filenames are
// legal in the attach table; the most recently edited visible row wins.
// Rows that exist but are all hidden from the observer surface as
// ErrForbidden rather than ErrNotFound.
func (s *TreeService) lookup(sess *model.Session, ch *model.Channel, folder, name string, channelView bool) (*model.Attach, error) {
	recs, err := s.attach.ByName(ch.ID, folder, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %q: %w", name, err)
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}

	for _, rec := range recs {
		visible, err := s.visible(sess, ch, rec, channelView)
		if err != nil {
			return nil, err
		}
		if visible {
			return rec, nil
		}
	}

	return nil, ErrForbidden
}

// visible applies both gates an entry must pass: the channel-level view
// capability and the row's own ACL. The owner bypasses both.
func (s *TreeService) visible(sess *model.Session, ch *model.Channel, rec *model.Attach, channelView bool) (bool, error) {
	if sess.ChannelID == ch.ID && sess.ChannelID != 0 {
		return true, nil
	}
	if !channelView {
		return false, nil
	}
	return s.perms.CanView(ch, rec, sess.Observer)
}

func (s *TreeService) canWrite(sess *model.Session, ch *model.Channel) (bool, error) {
	return s.perms.Allowed(ch.ID, sess.Observer, model.CapabilityWrite)
}

// OpenByHash serves direct downloads addressed by attach hash rather than
// path, the hotlink form of a file URL. The row's ACL still applies.
func (s *TreeService) OpenByHash(sess *model.Session, hash string) (*File, error) {
	rec, err := s.attach.ByHashAny(hash)
	if err != nil {
		if errors.Is(err, repository.ErrAttachNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load attachment: %w", err)
	}
	if rec.IsDir {
		return nil, ErrNotFound
	}

	ch, err := s.channels.ByID(rec.ChannelID)
	if err != nil {
		if errors.Is(err, repository.ErrChannelNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load channel: %w", err)
	}

	channelView, err := s.perms.Allowed(ch.ID, sess.Observer, model.CapabilityView)
	if err != nil {
		return nil, err
	}
	visible, err := s.visible(sess, ch, rec, channelView)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrForbidden
	}

	return &File{svc: s, sess: sess, channel: ch, rec: rec}, nil
}

func blobKey(channelID int64, hash string) string {
	return fmt.Sprintf("%d/%s", channelID, hash)
}

func splitPath(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
