package service

import (
	"fmt"

	"github.com/hubmatrix/cloudtree/internal/model"
	"github.com/hubmatrix/cloudtree/internal/repository"
)

// RootService is the collection above every channel root: it lists the
// channels an observer may browse into.
type RootService struct {
	channels    repository.ChannelRepository
	perms       *PermissionService
	tree        *TreeService
	blockPublic bool
}

func NewRootService(channels repository.ChannelRepository, perms *PermissionService, tree *TreeService, blockPublic bool) *RootService {
	return &RootService{channels: channels, perms: perms, tree: tree, blockPublic: blockPublic}
}

// Children lists every non-removed, non-hidden channel the observer may
// view, each as its root directory.
func (s *RootService) Children(sess *model.Session) ([]Node, error) {
	if s.blockPublic && sess.Anonymous() {
		return nil, ErrForbidden
	}

	chs, err := s.channels.AllVisible()
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	var nodes []Node
	for _, ch := range chs {
		ok, err := s.perms.Allowed(ch.ID, sess.Observer, model.CapabilityView)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		nodes = append(nodes, &Directory{svc: s.tree, sess: sess, channel: ch})
	}

	return nodes, nil
}

// Child resolves one channel root by address.
func (s *RootService) Child(sess *model.Session, address string) (Node, error) {
	if s.blockPublic && sess.Anonymous() {
		return nil, ErrForbidden
	}
	return s.tree.Resolve(sess, address)
}
