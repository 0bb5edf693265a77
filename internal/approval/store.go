// Package approval issues and consumes one-time ApprovalTokens that gate
// plan execution, mirroring the mutex-guarded map and lazy-expiry pattern
// the teacher's approval store uses for its own approval requests.
package approval

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rcourtman/liteclaw/internal/apperr"
	"github.com/rcourtman/liteclaw/internal/planmodel"
)

const defaultTTL = 5 * time.Minute

// Store is a mutex-guarded, in-memory table of outstanding approval tokens.
// Tokens are single-use: Consume atomically marks a token consumed under
// the same lock that checks its validity, so two concurrent executions
// racing on the same token can never both succeed.
type Store struct {
	mu     sync.Mutex
	tokens map[string]*planmodel.ApprovalToken
}

// NewStore returns an empty token store.
func NewStore() *Store {
	return &Store{tokens: make(map[string]*planmodel.ApprovalToken)}
}

// Issue mints a new token bound to planID with the default TTL.
func (s *Store) Issue(planID string) planmodel.ApprovalToken {
	now := planmodel.NowTimestamp()
	tok := planmodel.ApprovalToken{
		TokenID:    uuid.NewString(),
		PlanID:     planID,
		IssuedAt:   now,
		ExpiresAt:  now.Add(defaultTTL),
		TTLSeconds: int(defaultTTL.Seconds()),
		OneTimeUse: true,
	}

	s.mu.Lock()
	s.tokens[tok.TokenID] = &tok
	s.mu.Unlock()

	log.Info().Str("token_id", tok.TokenID).Str("plan_id", planID).Msg("approval token issued")
	return tok
}

// Consume validates and, if required is true, atomically consumes the
// token for planID. If required is false, tokenID is ignored and Consume
// returns (nil, nil) — no token is needed. The check order matches the
// reference backend exactly: missing required token, unknown token, plan
// mismatch, already consumed, expired, then success.
func (s *Store) Consume(planID string, tokenID *string, required bool) (*planmodel.ApprovalToken, error) {
	if !required {
		return nil, nil
	}
	if tokenID == nil || *tokenID == "" {
		return nil, apperr.Forbidden("Approval token required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.tokens[*tokenID]
	if !ok {
		return nil, apperr.Forbidden("Unknown approval token")
	}
	if tok.PlanID != planID {
		return nil, apperr.Forbidden("Approval token does not match plan")
	}
	if tok.ConsumedAt != nil {
		return nil, apperr.Forbidden("Approval token already used")
	}
	now := planmodel.NowTimestamp()
	if !now.Before(tok.ExpiresAt) {
		return nil, apperr.Forbidden("Approval token expired")
	}

	tok.ConsumedAt = &now
	consumed := *tok
	log.Info().Str("token_id", *tokenID).Str("plan_id", planID).Msg("approval token consumed")
	return &consumed, nil
}
