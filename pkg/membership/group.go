package membership

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/relves/groupsig/pkg/edcrypto"
	"github.com/relves/groupsig/pkg/groupmsg"
	"github.com/relves/groupsig/pkg/signing"
	"github.com/relves/groupsig/pkg/types"
)

// Group is the membership roster of one group. Admin signatures are
// verified against the group public key.
//
// Group is not safe for concurrent use; callers serialize operations per
// group.
type Group struct {
	pk          types.GroupPubKey
	provider    edcrypto.Provider
	logger      *slog.Logger
	members     map[types.SessionID]State
	revocations []types.RevocationEntry
}

// NewGroup creates an empty roster. A nil logger falls back to slog.Default().
func NewGroup(p edcrypto.Provider, pk types.GroupPubKey, logger *slog.Logger) *Group {
	if logger == nil {
		logger = slog.Default()
	}
	return &Group{
		pk:       pk,
		provider: p,
		logger:   logger.With("group", pk.SessionID()),
		members:  make(map[types.SessionID]State),
	}
}

func key(id types.SessionID) types.SessionID {
	return types.SessionID(strings.ToLower(id.String()))
}

// PubKey returns the group public key.
func (g *Group) PubKey() types.GroupPubKey { return g.pk }

// AddCreator records the group creator as its first admin.
func (g *Group) AddCreator(id types.SessionID) error {
	if !id.IsStandard() {
		return &TransitionError{Code: ErrCodeUnknownMember, Member: id, Message: "creator must be a standard session id"}
	}
	if len(g.members) > 0 {
		return &TransitionError{Code: ErrCodeIllegalTransition, Member: id, Message: "group already has members"}
	}
	g.members[key(id)] = StateAdmin
	return nil
}

// State returns the current state of id, StateNone if unknown.
func (g *Group) State(id types.SessionID) State {
	return g.members[key(id)]
}

// Members returns a copy of the roster.
func (g *Group) Members() map[types.SessionID]State {
	out := make(map[types.SessionID]State, len(g.members))
	for id, s := range g.members {
		out[id] = s
	}
	return out
}

// Admins returns the ids currently holding admin rights, sorted.
func (g *Group) Admins() []types.SessionID {
	var out []types.SessionID
	for id, s := range g.members {
		if s == StateAdmin {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Capabilities returns the capabilities id holds in this group. Member
// driven transitions are gated on them; see RequiredCapability.
func (g *Group) Capabilities(id types.SessionID) []string {
	switch g.State(id) {
	case StateAdmin:
		return []string{types.CapabilityAdmin, types.CapabilityMember}
	case StateMember:
		return []string{types.CapabilityMember}
	case StateInvited:
		return []string{types.CapabilityMemberRespond}
	}
	return nil
}

// Can reports whether id holds a capability granting required.
func (g *Group) Can(id types.SessionID, required string) bool {
	return types.AnyCapabilityAllows(g.Capabilities(id), required)
}

// Revocations returns the removal and content-scrub records in order.
func (g *Group) Revocations() []types.RevocationEntry {
	return append([]types.RevocationEntry(nil), g.revocations...)
}

// ExportRevocations encodes the revocation records as newline separated
// JSON, oldest first.
func (g *Group) ExportRevocations() ([]byte, error) {
	var buf bytes.Buffer
	for i := range g.revocations {
		data, err := g.revocations[i].Serialize()
		if err != nil {
			return nil, fmt.Errorf("failed to serialize revocation %d: %w", i, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func (g *Group) checkGroup(m groupmsg.Message) error {
	if m.Header().GroupPK != g.pk {
		return &TransitionError{Code: ErrCodeWrongGroup, Message: fmt.Sprintf("%s message is for group %s", m.Kind(), m.Header().GroupPK)}
	}
	return nil
}

func (g *Group) verifyAdmin(member types.SessionID, event Event, kind signing.Kind, f signing.Fields, sig []byte) error {
	ok, err := signing.VerifyForOperation(g.provider, g.pk[:], kind, f, sig)
	if err != nil {
		return fmt.Errorf("verify %s signature: %w", kind, err)
	}
	if !ok {
		return &TransitionError{
			Code:    ErrCodeInvalidAdminSignature,
			Member:  member,
			From:    g.State(member),
			Event:   event,
			Message: fmt.Sprintf("%s signature does not verify against the group key", kind),
		}
	}
	return nil
}

// authorize fails unless member holds the capability e requires.
func (g *Group) authorize(member types.SessionID, e Event) error {
	required := RequiredCapability(e)
	if required == "" || g.Can(member, required) {
		return nil
	}
	return &TransitionError{
		Code:    ErrCodeIllegalTransition,
		Member:  member,
		From:    g.State(member),
		Event:   e,
		Message: fmt.Sprintf("%s requires %s", e, required),
	}
}

func (g *Group) step(member types.SessionID, e Event) (State, error) {
	from := g.State(member)
	to, err := Next(from, e)
	if err != nil {
		var terr *TransitionError
		if errors.As(err, &terr) {
			terr.Member = member
		}
		return from, err
	}
	return to, nil
}

func (g *Group) set(member types.SessionID, e Event, to State) {
	from := g.State(member)
	g.members[key(member)] = to
	if from != to {
		g.logger.Debug("membership transition", "member", member, "event", e, "from", from, "to", to)
	}
}

// ApplyInvite records that member was invited with m. The admin signature
// must cover member and the message timestamp.
func (g *Group) ApplyInvite(member types.SessionID, m *groupmsg.Invite) error {
	if err := g.checkGroup(m); err != nil {
		return err
	}
	to, err := g.step(member, EventInvite)
	if err != nil {
		return err
	}
	f := signing.Fields{SessionID: member, Timestamp: m.Timestamp}
	if err := g.verifyAdmin(member, EventInvite, signing.KindInvite, f, m.AdminSignature); err != nil {
		return err
	}
	g.set(member, EventInvite, to)
	return nil
}

// ApplyInviteResponse moves an invitee to member or declined.
func (g *Group) ApplyInviteResponse(member types.SessionID, m *groupmsg.InviteResponse) error {
	if err := g.checkGroup(m); err != nil {
		return err
	}
	e := EventDecline
	if m.Approved {
		e = EventAccept
	}
	if err := g.authorize(member, e); err != nil {
		return err
	}
	to, err := g.step(member, e)
	if err != nil {
		return err
	}
	g.set(member, e, to)
	return nil
}

// ApplyPromote makes member an admin. The promotion carries the group seed,
// which must derive the group public key.
func (g *Group) ApplyPromote(member types.SessionID, m *groupmsg.Promote) error {
	if err := g.checkGroup(m); err != nil {
		return err
	}
	to, err := g.step(member, EventPromote)
	if err != nil {
		return err
	}
	id, err := edcrypto.IdentityFromSeed(m.GroupIdentitySeed)
	if err != nil {
		return err
	}
	if !bytes.Equal(id.Public[:], g.pk[:]) {
		return &TransitionError{
			Code:    ErrCodeInvalidPromotionSeed,
			Member:  member,
			From:    g.State(member),
			Event:   EventPromote,
			Message: "group identity seed does not derive the group key",
		}
	}
	g.set(member, EventPromote, to)
	return nil
}

// ApplyMemberLeft records a voluntary departure. No admin signature is
// involved; the transport authenticates the sender.
func (g *Group) ApplyMemberLeft(member types.SessionID, m *groupmsg.MemberLeft) error {
	if err := g.checkGroup(m); err != nil {
		return err
	}
	if err := g.authorize(member, EventLeave); err != nil {
		return err
	}
	to, err := g.step(member, EventLeave)
	if err != nil {
		return err
	}
	g.set(member, EventLeave, to)
	return nil
}

// ApplyMemberLeftNotification accepts a departure announcement. It never
// changes state.
func (g *Group) ApplyMemberLeftNotification(member types.SessionID, m *groupmsg.MemberLeftNotification) error {
	if err := g.checkGroup(m); err != nil {
		return err
	}
	_, err := g.step(member, EventLeftNotification)
	return err
}

// ApplyRemove removes member. adminSignature signs
// "DELETE" || member || timestampMs with the group key.
func (g *Group) ApplyRemove(member types.SessionID, timestampMs int64, adminSignature []byte) error {
	to, err := g.step(member, EventRemove)
	if err != nil {
		return err
	}
	f := signing.Fields{SessionID: member, Timestamp: timestampMs}
	if err := g.verifyAdmin(member, EventRemove, signing.KindDelete, f, adminSignature); err != nil {
		return err
	}
	g.set(member, EventRemove, to)
	g.revoke(types.RevokeMember, member, timestampMs, nil)
	return nil
}

// ApplyDeleteMemberContent scrubs the content of removed members. Every
// listed member must already be removed; the signature covers the full id
// list and hashes in message order. Nothing is recorded unless all checks
// pass.
func (g *Group) ApplyDeleteMemberContent(m *groupmsg.DeleteMemberContent) error {
	if err := g.checkGroup(m); err != nil {
		return err
	}
	for _, id := range m.MemberSessionIDs {
		if g.State(id) == StateNone {
			return &TransitionError{Code: ErrCodeUnknownMember, Member: id, Event: EventDeleteContent, Message: "not part of the group"}
		}
		if _, err := g.step(id, EventDeleteContent); err != nil {
			return err
		}
	}
	f := signing.Fields{
		Timestamp:     m.Timestamp,
		SessionIDs:    m.MemberSessionIDs,
		MessageHashes: m.MessageHashes,
	}
	if err := g.verifyAdmin("", EventDeleteContent, signing.KindDeleteContent, f, m.AdminSignature); err != nil {
		return err
	}
	for _, id := range m.MemberSessionIDs {
		g.revoke(types.RevokeContent, id, m.Timestamp, m.MessageHashes)
	}
	return nil
}

func (g *Group) revoke(t types.RevocationType, target types.SessionID, timestampMs int64, hashes []string) {
	g.revocations = append(g.revocations, types.RevocationEntry{
		Index:         uint64(len(g.revocations)),
		Type:          t,
		Target:        target,
		Timestamp:     time.UnixMilli(timestampMs).UTC(),
		MessageHashes: append([]string(nil), hashes...),
	})
	g.logger.Info("revocation recorded", "type", t, "target", target)
}
