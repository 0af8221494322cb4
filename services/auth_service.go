package services

import (
	"fmt"

	apperr "chat-vault/errors"

	"chat-vault/auth"
	"chat-vault/domain"
	"chat-vault/identity"
	"chat-vault/store"
)

type IAuthService interface {
	Register(username, password string) (*domain.Token, error)
	Authenticate(username, password string) (*domain.Token, error)
	UpdatePassword(userID, newPassword string) (*domain.Token, error)
	Logout(userID string) error
}

type AuthService struct {
	store    *store.Store
	sessions *auth.Registry
	hasher   auth.Hasher
	ids      *identity.Allocator
	saver    Notifier
}

func NewAuthService(s *store.Store, sessions *auth.Registry, hasher auth.Hasher, ids *identity.Allocator, saver Notifier) *AuthService {
	return &AuthService{store: s, sessions: sessions, hasher: hasher, ids: ids, saver: saver}
}

// Register creates an account and issues its first session token.
func (s *AuthService) Register(username, password string) (*domain.Token, error) {
	req := auth.RegisterRequest{Username: username, Password: password}

	// Validate before any expensive cryptographic operation.
	if err := auth.ValidateRegister(req); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing failed: %w", err)
	}

	var userID string
	err = s.store.Update(func(tx *store.Tx) error {
		if tx.UsernameTaken(username) {
			return fmt.Errorf("username %q: %w", username, apperr.ErrConflict)
		}
		userID = s.ids.Allocate(identity.ObjectIDLength, identity.Func(tx.IDTaken))
		return tx.Insert(userID, domain.NewUser(userID, username, hashed))
	})
	if err != nil {
		return nil, err
	}

	token, err := s.sessions.Issue(userID)
	if err != nil {
		return nil, err
	}
	s.saver.Notify()
	return token, nil
}

// Authenticate checks credentials and issues a fresh token, displacing any
// previous session.
func (s *AuthService) Authenticate(username, password string) (*domain.Token, error) {
	var hashed, userID string
	err := s.store.View(func(tx *store.Tx) error {
		user, err := tx.UserByUsername(username)
		if err != nil {
			// Generic error to prevent user enumeration.
			return apperr.ErrInvalidCredentials
		}
		hashed, userID = user.PasswordHash, user.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	match, err := s.hasher.Verify(password, hashed)
	if err != nil || !match {
		return nil, apperr.ErrInvalidCredentials
	}

	token, err := s.sessions.Issue(userID)
	if err != nil {
		return nil, err
	}
	s.saver.Notify()
	return token, nil
}

// UpdatePassword re-hashes, revokes every live session and issues a fresh
// token for the caller.
func (s *AuthService) UpdatePassword(userID, newPassword string) (*domain.Token, error) {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hashing failed: %w", err)
	}

	err = s.store.Update(func(tx *store.Tx) error {
		user, err := tx.User(userID)
		if err != nil {
			return err
		}
		user.PasswordHash = hashed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.sessions.RevokeAll(userID); err != nil {
		return nil, err
	}
	token, err := s.sessions.Issue(userID)
	if err != nil {
		return nil, err
	}
	s.saver.Notify()
	return token, nil
}

// Logout drops the caller's session.
func (s *AuthService) Logout(userID string) error {
	if err := s.sessions.Revoke(userID); err != nil {
		return err
	}
	s.saver.Notify()
	return nil
}
