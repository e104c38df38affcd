// Package authdata wraps the external collaborator that mints per-member
// swarm sub-account authentication data for group invites.
package authdata

import (
	"context"
	"fmt"

	"github.com/relves/groupsig/pkg/precondition"
	"github.com/relves/groupsig/pkg/types"
)

// Error codes
const (
	ErrCodeNetworkOrAuthData = "NETWORK_OR_AUTH_DATA"
	ErrCodeInvalidAuthData   = "INVALID_AUTH_DATA"
)

// ErrNetworkOrAuthData matches any *Error with errors.Is.
var ErrNetworkOrAuthData = &Error{Code: ErrCodeNetworkOrAuthData}

// Minter produces the 100-byte member auth data for member in group groupPK.
// Implementations may block on network access and must honour ctx.
type Minter interface {
	MakeSwarmSubAccount(ctx context.Context, groupPK types.GroupPubKey, member types.SessionID) ([]byte, error)
}

// MinterFunc adapts a function to Minter.
type MinterFunc func(ctx context.Context, groupPK types.GroupPubKey, member types.SessionID) ([]byte, error)

func (f MinterFunc) MakeSwarmSubAccount(ctx context.Context, groupPK types.GroupPubKey, member types.SessionID) ([]byte, error) {
	return f(ctx, groupPK, member)
}

// Error reports a failed auth data request. The caller may retry; nothing
// partial is ever returned alongside it.
type Error struct {
	Code   string
	Member types.SessionID
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: minting auth data for %s: %v", e.Code, e.Member, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches every *Error regardless of code, so callers can test for the
// whole family with ErrNetworkOrAuthData.
func (e *Error) Is(target error) bool {
	_, ok := target.(*Error)
	return ok
}

// Mint asks m for member's auth data and checks its length.
func Mint(ctx context.Context, m Minter, groupPK types.GroupPubKey, member types.SessionID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Code: ErrCodeNetworkOrAuthData, Member: member, Err: err}
	}
	data, err := m.MakeSwarmSubAccount(ctx, groupPK, member)
	if err != nil {
		return nil, &Error{Code: ErrCodeNetworkOrAuthData, Member: member, Err: err}
	}
	if err := precondition.CheckLength(data, precondition.AuthDataLen, "memberAuthData", "makeSwarmSubAccount"); err != nil {
		return nil, &Error{Code: ErrCodeInvalidAuthData, Member: member, Err: err}
	}
	return data, nil
}
