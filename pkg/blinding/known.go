package blinding

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/relves/groupsig/pkg/edcrypto"
	"github.com/relves/groupsig/pkg/precondition"
	"github.com/relves/groupsig/pkg/types"
)

// DefaultKnownKeysSize bounds the number of cached mappings per direction.
const DefaultKnownKeysSize = 10000

type mappingKey struct {
	id     string
	server string
}

func newMappingKey(id types.SessionID, serverPK []byte) mappingKey {
	return mappingKey{id: strings.ToLower(id.String()), server: hex.EncodeToString(serverPK)}
}

// KnownKeys caches resolved blinded id <-> standard id mappings per server.
// Matching is expensive (a scalar multiplication per candidate), so hits are
// kept in a bounded LRU in both directions. Safe for concurrent use.
type KnownKeys struct {
	provider   edcrypto.Provider
	logger     *slog.Logger
	toStandard *lru.Cache[mappingKey, types.SessionID]
	toBlinded  *lru.Cache[mappingKey, types.SessionID]
}

// NewKnownKeys creates a cache holding up to size mappings. A nil logger
// falls back to slog.Default().
func NewKnownKeys(p edcrypto.Provider, size int, logger *slog.Logger) (*KnownKeys, error) {
	if logger == nil {
		logger = slog.Default()
	}
	toStandard, err := lru.New[mappingKey, types.SessionID](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create blinded key cache: %w", err)
	}
	toBlinded, err := lru.New[mappingKey, types.SessionID](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create blinded key cache: %w", err)
	}
	return &KnownKeys{
		provider:   p,
		logger:     logger,
		toStandard: toStandard,
		toBlinded:  toBlinded,
	}, nil
}

// Add records that blindedID belongs to standardID on serverPK. An existing
// mapping for the same blinded id is overridden.
func (c *KnownKeys) Add(blindedID, standardID types.SessionID, serverPK []byte) error {
	if !blindedID.HasBlindedPrefix() {
		return precondition.NewError(precondition.ErrCodeInvalidMemberID,
			"blindedID", ctxBlinding, "blindedId is not a blinded key")
	}
	if !standardID.IsStandard() {
		return &precondition.Error{Code: precondition.ErrCodeInvalidMemberID, Field: "standardID", Context: ctxBlinding}
	}
	if err := precondition.CheckLength(serverPK, edcrypto.PointSize, "serverPK", ctxBlinding); err != nil {
		return err
	}

	key := newMappingKey(blindedID, serverPK)
	if prev, ok := c.toStandard.Peek(key); ok && !prev.Equal(standardID) {
		c.logger.Warn("overriding cached blinded mapping",
			"blinded_id", blindedID, "previous", prev, "standard_id", standardID)
	}
	c.toStandard.Add(key, standardID)
	c.toBlinded.Add(newMappingKey(standardID, serverPK), blindedID)
	return nil
}

// Lookup returns the cached standard id for blindedID. Ids that are not
// blinded are returned unchanged.
func (c *KnownKeys) Lookup(blindedID types.SessionID, serverPK []byte) (types.SessionID, bool) {
	if !blindedID.HasBlindedPrefix() {
		return blindedID, true
	}
	return c.toStandard.Get(newMappingKey(blindedID, serverPK))
}

// LookupBlinded returns the cached blinded id of standardID on serverPK.
func (c *KnownKeys) LookupBlinded(standardID types.SessionID, serverPK []byte) (types.SessionID, bool) {
	return c.toBlinded.Get(newMappingKey(standardID, serverPK))
}

// Resolve finds the standard id behind blindedID, trying the cache first and
// then each candidate in order. A match is cached before it is returned.
// Blinded candidates are skipped.
func (c *KnownKeys) Resolve(blindedID types.SessionID, serverPK []byte, candidates []types.SessionID) (types.SessionID, bool, error) {
	if id, ok := c.Lookup(blindedID, serverPK); ok {
		return id, true, nil
	}
	if blindedID.Prefix() != types.PrefixBlinded15 {
		return "", false, nil
	}

	c.logger.Debug("blinded key cache miss", "blinded_id", blindedID, "candidates", len(candidates))
	for _, candidate := range candidates {
		if !candidate.IsStandard() {
			continue
		}
		ok, err := MatchStandard(c.provider, candidate, blindedID, serverPK)
		if err != nil {
			return "", false, err
		}
		if !ok {
			continue
		}
		if err := c.Add(blindedID, candidate, serverPK); err != nil {
			return "", false, err
		}
		return candidate, true, nil
	}
	return "", false, nil
}

// Len returns the number of cached blinded -> standard mappings.
func (c *KnownKeys) Len() int {
	return c.toStandard.Len()
}
