package auth

import (
	"sync"
	"testing"
	"time"

	apperr "chat-vault/errors"

	"chat-vault/domain"
	"chat-vault/identity"
	"chat-vault/store"

	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *store.Store) {
	t.Helper()
	s := store.New()
	require.NoError(t, s.Update(func(tx *store.Tx) error {
		return tx.Insert("u1", domain.NewUser("u1", "alice", "hash"))
	}))
	return NewRegistry(s, identity.New(), time.Hour), s
}

func TestIssueAndResolve(t *testing.T) {
	req := require.New(t)
	registry, _ := newTestRegistry(t)

	token, err := registry.Issue("u1")
	req.NoError(err)
	req.Len(token.AuthCode, identity.AuthCodeLength)
	req.Equal("u1", token.UserID)

	userID, err := registry.Resolve(token.AuthCode)
	req.NoError(err)
	req.Equal("u1", userID)
}

func TestIssue_UnknownUser(t *testing.T) {
	req := require.New(t)
	registry, _ := newTestRegistry(t)

	_, err := registry.Issue("missing")
	req.ErrorIs(err, apperr.ErrNotFound)
}

func TestResolve_MissingAndInvalid(t *testing.T) {
	req := require.New(t)
	registry, _ := newTestRegistry(t)

	_, err := registry.Resolve("")
	req.ErrorIs(err, apperr.ErrAuthMissing)

	_, err = registry.Resolve("no-such-code")
	req.ErrorIs(err, apperr.ErrAuthInvalid)
}

func TestResolve_ExpiryBoundary(t *testing.T) {
	req := require.New(t)
	registry, s := newTestRegistry(t)

	issued := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	registry.now = func() time.Time { return issued }

	token, err := registry.Issue("u1")
	req.NoError(err)

	// One instant before expiry the token still resolves.
	registry.now = func() time.Time { return token.ExpiresAt.Add(-time.Nanosecond) }
	_, err = registry.Resolve(token.AuthCode)
	req.NoError(err)

	// Exactly at ExpiresAt the token is expired and lazily evicted.
	registry.now = func() time.Time { return token.ExpiresAt }
	_, err = registry.Resolve(token.AuthCode)
	req.ErrorIs(err, apperr.ErrAuthExpired)

	req.NoError(s.View(func(tx *store.Tx) error {
		req.False(tx.AuthCodeTaken(token.AuthCode))
		req.Empty(tx.Tokens())
		return nil
	}))

	// A second check of the same code is now merely invalid.
	_, err = registry.Resolve(token.AuthCode)
	req.ErrorIs(err, apperr.ErrAuthInvalid)
}

func TestResolve_ConcurrentWithIssuance(t *testing.T) {
	req := require.New(t)
	registry, s := newTestRegistry(t)

	require.NoError(t, s.Update(func(tx *store.Tx) error {
		return tx.Insert("u2", domain.NewUser("u2", "bob", "hash"))
	}))

	token, err := registry.Issue("u1")
	req.NoError(err)

	// Run with -race: parallel resolves of a live code share the read lock
	// while another goroutine keeps reissuing for a different user.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if userID, err := registry.Resolve(token.AuthCode); err == nil && userID != "u1" {
					t.Errorf("resolved to %q, want u1", userID)
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			if _, err := registry.Issue("u2"); err != nil {
				t.Errorf("issue: %v", err)
				return
			}
		}
	}()
	wg.Wait()
}

func TestIssue_DisplacesPreviousToken(t *testing.T) {
	req := require.New(t)
	registry, s := newTestRegistry(t)

	first, err := registry.Issue("u1")
	req.NoError(err)
	second, err := registry.Issue("u1")
	req.NoError(err)
	req.NotEqual(first.AuthCode, second.AuthCode)

	_, err = registry.Resolve(first.AuthCode)
	req.ErrorIs(err, apperr.ErrAuthInvalid)

	userID, err := registry.Resolve(second.AuthCode)
	req.NoError(err)
	req.Equal("u1", userID)

	req.NoError(s.View(func(tx *store.Tx) error {
		req.Len(tx.Tokens(), 1)
		return nil
	}))
}

func TestRevokeAll(t *testing.T) {
	req := require.New(t)
	registry, s := newTestRegistry(t)

	token, err := registry.Issue("u1")
	req.NoError(err)

	req.NoError(registry.RevokeAll("u1"))

	_, err = registry.Resolve(token.AuthCode)
	req.ErrorIs(err, apperr.ErrAuthInvalid)
	req.NoError(s.View(func(tx *store.Tx) error {
		req.Empty(tx.Tokens())
		return nil
	}))
}
