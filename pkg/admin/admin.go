// Package admin builds the signed control messages a group admin sends:
// invites, promotions, removals and content scrubs.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relves/groupsig/internal/authdata"
	"github.com/relves/groupsig/pkg/edcrypto"
	"github.com/relves/groupsig/pkg/groupmsg"
	"github.com/relves/groupsig/pkg/nettime"
	"github.com/relves/groupsig/pkg/precondition"
	"github.com/relves/groupsig/pkg/signing"
	"github.com/relves/groupsig/pkg/types"
)

// ErrNoMinter is returned by InviteMessages when no Minter is configured.
var ErrNoMinter = errors.New("admin: no auth data minter configured")

// Service signs admin operations with the group's secret key.
// Safe for concurrent use.
type Service struct {
	cfg    *Config
	group  edcrypto.Identity
	pk     types.GroupPubKey
	signer signing.Signer
}

// NewService creates a service for the group whose admin keypair is group.
func NewService(group edcrypto.Identity, opts ...Option) *Service {
	cfg := applyOptions(opts...)
	return &Service{
		cfg:    cfg,
		group:  group,
		pk:     types.GroupPubKey(group.Public),
		signer: signing.NewStandardSigner(cfg.Provider, group),
	}
}

// GroupPubKey returns the group public key.
func (s *Service) GroupPubKey() types.GroupPubKey { return s.pk }

func (s *Service) base() groupmsg.Base {
	return groupmsg.NewBase(s.pk, nettime.NowMs(s.cfg.Clock))
}

// InviteDetail pairs an invite with its recipient.
type InviteDetail struct {
	Member types.SessionID
	Invite *groupmsg.Invite
}

// InviteMessages builds one signed invite per member, minting each member's
// auth data in parallel. All invites share one timestamp, which the
// signatures cover. Our own id is skipped. Any failure cancels the
// remaining requests and no invites are returned.
func (s *Service) InviteMessages(ctx context.Context, name string, members []types.SessionID) ([]InviteDetail, error) {
	const op = "inviteMessages"
	if s.cfg.Minter == nil {
		return nil, ErrNoMinter
	}
	if err := precondition.CheckNotEmpty(name, "groupName", op); err != nil {
		return nil, err
	}
	if err := precondition.CheckStandardSessionIDs(members, "members", op); err != nil {
		return nil, err
	}

	base := s.base()
	targets := make([]types.SessionID, 0, len(members))
	for _, m := range members {
		if s.cfg.Self != "" && m.Equal(s.cfg.Self) {
			continue
		}
		targets = append(targets, m)
	}

	start := time.Now()
	out := make([]InviteDetail, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, member := range targets {
		i, member := i, member
		g.Go(func() error {
			sig, err := signing.SignForOperation(s.signer, signing.KindInvite,
				signing.Fields{SessionID: member, Timestamp: base.Timestamp})
			if err != nil {
				return err
			}
			auth, err := authdata.Mint(gctx, s.cfg.Minter, s.pk, member)
			if err != nil {
				return err
			}
			invite, err := groupmsg.NewInvite(base, name, sig, auth)
			if err != nil {
				return err
			}
			out[i] = InviteDetail{Member: member, Invite: invite}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.cfg.Logger.Warn("failed to build invites", "group", s.pk, "members", len(targets), "error", err)
		return nil, err
	}

	s.cfg.Logger.Info("built invites",
		"group", s.pk,
		"members", len(targets),
		"duration", time.Since(start))
	return out, nil
}

// PromoteMessage builds a promotion for member. The message carries the
// group seed, so it must only ever be sent 1o1 to member.
func (s *Service) PromoteMessage(name string, member types.SessionID) (*groupmsg.Promote, error) {
	if !member.IsStandard() {
		return nil, &precondition.Error{Code: precondition.ErrCodeInvalidMemberID, Field: "member", Context: "promoteMessage"}
	}
	return groupmsg.NewPromote(s.base(), s.group.Seed[:], name)
}

// Removal is everything needed to remove a set of members.
type Removal struct {
	Timestamp int64
	// Deletes holds one 1o1 delete notice per removed member, in input order.
	Deletes []RemovalNotice
	// MemberChange announces the removal to the group.
	MemberChange *groupmsg.MemberChange
	// DeleteContent is set when content removal was requested.
	DeleteContent *groupmsg.DeleteMemberContent
}

// RemovalNotice is the signed delete notice for one member. The signature
// covers "DELETE" || Member || Timestamp.
type RemovalNotice struct {
	Member         types.SessionID
	AdminSignature []byte
	Message        *groupmsg.DeleteMessage
}

// RemoveMembers signs the removal of members. When withContent is set the
// removal also scrubs their content and the given message hashes.
func (s *Service) RemoveMembers(members []types.SessionID, withContent bool, messageHashes []string) (*Removal, error) {
	const op = "removeMembers"
	if err := precondition.CheckNonEmptyList(len(members), "members", op); err != nil {
		return nil, err
	}
	if err := precondition.CheckStandardSessionIDs(members, "members", op); err != nil {
		return nil, err
	}

	base := s.base()
	r := &Removal{Timestamp: base.Timestamp}
	for _, member := range members {
		sig, err := signing.SignForOperation(s.signer, signing.KindDelete,
			signing.Fields{SessionID: member, Timestamp: base.Timestamp})
		if err != nil {
			return nil, err
		}
		msg, err := groupmsg.NewDeleteMessage(base, []types.SessionID{member}, sig)
		if err != nil {
			return nil, err
		}
		r.Deletes = append(r.Deletes, RemovalNotice{Member: member, AdminSignature: sig, Message: msg})
	}

	change, err := groupmsg.NewMemberChange(base, groupmsg.MemberChangeRemoved, members, false)
	if err != nil {
		return nil, err
	}
	r.MemberChange = change

	if withContent {
		content, err := s.deleteMemberContent(base, members, messageHashes)
		if err != nil {
			return nil, err
		}
		r.DeleteContent = content
	}

	s.cfg.Logger.Info("signed member removal", "group", s.pk, "members", len(members), "with_content", withContent)
	return r, nil
}

// DeleteMemberContent signs a content scrub for members. Ids and hashes are
// signed in the order given.
func (s *Service) DeleteMemberContent(members []types.SessionID, messageHashes []string) (*groupmsg.DeleteMemberContent, error) {
	return s.deleteMemberContent(s.base(), members, messageHashes)
}

func (s *Service) deleteMemberContent(base groupmsg.Base, members []types.SessionID, messageHashes []string) (*groupmsg.DeleteMemberContent, error) {
	sig, err := signing.SignForOperation(s.signer, signing.KindDeleteContent, signing.Fields{
		Timestamp:     base.Timestamp,
		SessionIDs:    members,
		MessageHashes: messageHashes,
	})
	if err != nil {
		return nil, err
	}
	return groupmsg.NewDeleteMemberContent(base, members, messageHashes, sig)
}

// InfoChangeMessage builds an info change broadcast.
func (s *Service) InfoChangeMessage(typ groupmsg.InfoChangeType, name string, expiration time.Duration) (*groupmsg.InfoChange, error) {
	return groupmsg.NewInfoChange(s.base(), typ, name, expiration)
}

// SignDeleteHashes signs a request deleting messages from the group swarm.
func (s *Service) SignDeleteHashes(messageHashes []string) ([]byte, error) {
	sig, err := signing.SignForOperation(s.signer, signing.KindDeleteHashes,
		signing.Fields{MessageHashes: messageHashes})
	if err != nil {
		return nil, fmt.Errorf("sign delete request: %w", err)
	}
	return sig, nil
}

// SignExpire signs a request changing the expiry of group swarm messages.
// mode is "", signing.ExpiryShorten or signing.ExpiryExtend.
func (s *Service) SignExpire(mode string, expiryMs int64, messageHashes []string) ([]byte, error) {
	sig, err := signing.SignForOperation(s.signer, signing.KindExpire, signing.Fields{
		ShortenOrExtend: mode,
		ExpiryMs:        expiryMs,
		MessageHashes:   messageHashes,
	})
	if err != nil {
		return nil, fmt.Errorf("sign expire request: %w", err)
	}
	return sig, nil
}
