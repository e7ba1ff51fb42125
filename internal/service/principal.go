package service

import (
	"fmt"
	"strings"

	"github.com/hubmatrix/cloudtree/internal/model"
	"github.com/hubmatrix/cloudtree/internal/repository"
)

// Principal URI prefixes. Channels are individual identities; collections
// are privacy groups whose hashes appear in allow_gid/deny_gid lists.
const (
	ChannelPrincipalPrefix    = "principals/channels/"
	CollectionPrincipalPrefix = "principals/collections/"
)

// PrincipalService maps observer and group hashes to stable principal
// URIs for the access-control surface.
type PrincipalService struct {
	channels repository.ChannelRepository
	groups   repository.GroupRepository
}

func NewPrincipalService(channels repository.ChannelRepository, groups repository.GroupRepository) *PrincipalService {
	return &PrincipalService{channels: channels, groups: groups}
}

// CurrentPrincipal returns the URI of the acting identity, or "" for an
// anonymous observer.
func (s *PrincipalService) CurrentPrincipal(sess *model.Session) string {
	if sess.Observer == "" {
		return ""
	}
	return ChannelPrincipalPrefix + sess.Observer
}

// Channels lists every visible channel as a principal.
func (s *PrincipalService) Channels() ([]model.Principal, error) {
	chs, err := s.channels.AllVisible()
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	principals := make([]model.Principal, 0, len(chs))
	for _, ch := range chs {
		principals = append(principals, model.Principal{
			URI:         ChannelPrincipalPrefix + ch.Hash,
			DisplayName: ch.Address,
		})
	}
	return principals, nil
}

// Collections lists the logged-in channel's privacy groups as principals.
// An anonymous session owns no groups.
func (s *PrincipalService) Collections(sess *model.Session) ([]model.Principal, error) {
	if !sess.LoggedIn() {
		return []model.Principal{}, nil
	}

	groups, err := s.groups.ByChannel(sess.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	principals := make([]model.Principal, 0, len(groups))
	for _, g := range groups {
		principals = append(principals, model.Principal{
			URI:         CollectionPrincipalPrefix + g.Hash,
			DisplayName: g.Name,
		})
	}
	return principals, nil
}

// ByPrefix dispatches a principal listing request on its URI prefix.
func (s *PrincipalService) ByPrefix(sess *model.Session, prefix string) ([]model.Principal, error) {
	switch strings.Trim(prefix, "/") {
	case "principals/channels":
		return s.Channels()
	case "principals/collections":
		return s.Collections(sess)
	default:
		return nil, ErrNotFound
	}
}
