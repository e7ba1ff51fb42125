package service

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hubmatrix/cloudtree/internal/model"
	"github.com/hubmatrix/cloudtree/internal/repository"
)

// PermissionService answers capability and row-visibility questions. It
// never mutates state; storage errors are returned separately from the
// verdict so callers can treat a denial and a broken store differently.
type PermissionService struct {
	channels repository.ChannelRepository
	rules    repository.PermRuleRepository
	groups   repository.GroupRepository
}

func NewPermissionService(channels repository.ChannelRepository, rules repository.PermRuleRepository, groups repository.GroupRepository) *PermissionService {
	return &PermissionService{
		channels: channels,
		rules:    rules,
		groups:   groups,
	}
}

// Allowed reports whether the observer holds the capability on the
// channel. A zero channel id always denies; an empty observer evaluates
// public grants only; a channel's own hash is always allowed.
func (s *PermissionService) Allowed(channelID int64, observer string, capability model.Capability) (bool, error) {
	if channelID == 0 {
		return false, nil
	}

	ch, err := s.channels.ByID(channelID)
	if err != nil {
		if errors.Is(err, repository.ErrChannelNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load channel: %w", err)
	}

	if observer != "" && observer == ch.Hash {
		return true, nil
	}

	return s.rules.Allowed(channelID, capability, observer)
}

// CanView applies the row-level ACL of an attach record. When the record
// carries no lists of its own, the owning channel's defaults apply. Deny
// beats allow; empty allow lists mean unrestricted.
func (s *PermissionService) CanView(ch *model.Channel, att *model.Attach, observer string) (bool, error) {
	if observer != "" && observer == ch.Hash {
		return true, nil
	}

	allowCID, allowGID := att.AllowCID, att.AllowGID
	denyCID, denyGID := att.DenyCID, att.DenyGID
	if !att.Restricted() {
		allowCID, allowGID = ch.AllowCID, ch.AllowGID
		denyCID, denyGID = ch.DenyCID, ch.DenyGID
	}

	restricted := allowCID != "" || allowGID != ""
	if observer == "" {
		// Anonymous observers can only match the unrestricted case; deny
		// lists cannot name them.
		return !restricted, nil
	}

	if slices.Contains(model.SplitHashes(denyCID), observer) {
		return false, nil
	}

	// Group membership is only consulted when a group list is present.
	var memberOf []string
	if denyGID != "" || allowGID != "" {
		var err error
		memberOf, err = s.groups.MemberOf(ch.ID, observer)
		if err != nil {
			return false, fmt.Errorf("failed to load group membership: %w", err)
		}
	}

	for _, g := range model.SplitHashes(denyGID) {
		if slices.Contains(memberOf, g) {
			return false, nil
		}
	}

	if !restricted {
		return true, nil
	}

	if slices.Contains(model.SplitHashes(allowCID), observer) {
		return true, nil
	}
	for _, g := range model.SplitHashes(allowGID) {
		if slices.Contains(memberOf, g) {
			return true, nil
		}
	}

	return false, nil
}
