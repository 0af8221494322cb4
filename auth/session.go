// Package auth covers password hashing, request validation and the bearer
// session registry. Sessions are opaque server-side auth codes, one active
// token per user: a new issuance invalidates the previous one, and a
// password change revokes everything.
package auth

import (
	"errors"
	"fmt"
	"time"

	apperr "chat-vault/errors"

	"chat-vault/domain"
	"chat-vault/identity"
	"chat-vault/store"
)

// DefaultTokenTTL is the validity window applied when none is configured.
const DefaultTokenTTL = 24 * time.Hour

// Registry issues, resolves and revokes bearer tokens on top of the store.
type Registry struct {
	store *store.Store
	ids   *identity.Allocator
	ttl   time.Duration
	now   func() time.Time
}

func NewRegistry(s *store.Store, ids *identity.Allocator, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Registry{store: s, ids: ids, ttl: ttl, now: time.Now}
}

// Issue creates a fresh token for the user, revoking any previous one in the
// same transaction so the one-active-session invariant can never be observed
// broken.
func (r *Registry) Issue(userID string) (*domain.Token, error) {
	var token *domain.Token
	err := r.store.Update(func(tx *store.Tx) error {
		if _, err := tx.User(userID); err != nil {
			return err
		}
		for _, t := range tx.Tokens() {
			if t.UserID == userID {
				if err := tx.Remove(t.ID); err != nil {
					return err
				}
			}
		}

		id := r.ids.Allocate(identity.ObjectIDLength, identity.Func(tx.IDTaken))
		code := r.ids.Allocate(identity.AuthCodeLength, identity.Func(tx.AuthCodeTaken))
		now := r.now()
		token = &domain.Token{
			ID:        id,
			AuthCode:  code,
			UserID:    userID,
			IssuedAt:  now,
			ExpiresAt: now.Add(r.ttl),
		}
		return tx.Insert(id, token)
	})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Resolve maps a presented auth code to its user. The happy path runs under
// the shared read lock so authenticated requests stay parallel. Expired
// tokens are evicted lazily: the first failed check upgrades to the write
// lock and removes them, so an expired code can never resolve and never
// lingers past its first use.
func (r *Registry) Resolve(authCode string) (string, error) {
	if authCode == "" {
		return "", apperr.ErrAuthMissing
	}
	var userID string
	err := r.store.View(func(tx *store.Tx) error {
		token, err := tx.TokenByCode(authCode)
		if err != nil {
			return apperr.ErrAuthInvalid
		}
		if token.Expired(r.now()) {
			return apperr.ErrAuthExpired
		}
		userID = token.UserID
		return nil
	})
	if errors.Is(err, apperr.ErrAuthExpired) {
		r.evictExpired(authCode)
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

// evictExpired re-checks under the write lock: between the read and the
// upgrade the token may already have been displaced by a newer issuance.
func (r *Registry) evictExpired(authCode string) {
	_ = r.store.Update(func(tx *store.Tx) error {
		token, err := tx.TokenByCode(authCode)
		if err != nil {
			return nil
		}
		if !token.Expired(r.now()) {
			return nil
		}
		return tx.Remove(token.ID)
	})
}

// Revoke drops the user's active session. With one active token per user it
// is equivalent to RevokeAll and kept as the logout entry point.
func (r *Registry) Revoke(userID string) error {
	return r.RevokeAll(userID)
}

// RevokeAll removes every token owned by the user. Called on logout and
// password change.
func (r *Registry) RevokeAll(userID string) error {
	return r.store.Update(func(tx *store.Tx) error {
		for _, t := range tx.Tokens() {
			if t.UserID == userID {
				if err := tx.Remove(t.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
