package approval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rcourtman/liteclaw/internal/planmodel"
)

func TestConsumeNotRequiredSkipsCheck(t *testing.T) {
	s := NewStore()
	tok, err := s.Consume("plan-1", nil, false)
	require.NoError(t, err)
	require.Nil(t, tok)
}

func TestConsumeRequiresTokenID(t *testing.T) {
	s := NewStore()
	_, err := s.Consume("plan-1", nil, true)
	require.Error(t, err)
}

func TestConsumeUnknownToken(t *testing.T) {
	s := NewStore()
	bogus := "does-not-exist"
	_, err := s.Consume("plan-1", &bogus, true)
	require.Error(t, err)
}

func TestIssueThenConsumeSucceedsOnce(t *testing.T) {
	s := NewStore()
	issued := s.Issue("plan-1")

	tok, err := s.Consume("plan-1", &issued.TokenID, true)
	require.NoError(t, err)
	require.NotNil(t, tok)
	require.NotNil(t, tok.ConsumedAt)

	_, err = s.Consume("plan-1", &issued.TokenID, true)
	require.Error(t, err, "token must not be reusable")
}

func TestConsumeRejectsPlanMismatch(t *testing.T) {
	s := NewStore()
	issued := s.Issue("plan-1")
	_, err := s.Consume("plan-2", &issued.TokenID, true)
	require.Error(t, err)
}

func TestConsumeRejectsExpiredToken(t *testing.T) {
	s := NewStore()
	issued := s.Issue("plan-1")
	s.mu.Lock()
	s.tokens[issued.TokenID].ExpiresAt = planmodel.NewTimestamp(time.Now().Add(-time.Second))
	s.mu.Unlock()

	_, err := s.Consume("plan-1", &issued.TokenID, true)
	require.Error(t, err)
}
