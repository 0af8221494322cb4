package services

import (
	"fmt"

	apperr "chat-vault/errors"

	"chat-vault/domain"
	"chat-vault/store"
)

type IUserService interface {
	Follow(followerID, targetID string) error
	Unfollow(followerID, targetID string) error
	SetIcon(userID, icon string) error
	AwardBanner(requesterID, targetID, caption, rarity string) error
	TransferBanner(requesterID, fromID, toID string, index int) error
	Suspend(requesterID, targetID string, level int) error
}

// UserService covers the profile and moderation operations: follows, icons,
// banners and suspensions.
type UserService struct {
	store *store.Store
	saver Notifier
}

func NewUserService(s *store.Store, saver Notifier) *UserService {
	return &UserService{store: s, saver: saver}
}

func (s *UserService) Follow(followerID, targetID string) error {
	if followerID == targetID {
		return fmt.Errorf("cannot follow yourself: %w", apperr.ErrValidation)
	}
	err := s.store.Update(func(tx *store.Tx) error {
		if _, err := tx.User(followerID); err != nil {
			return err
		}
		target, err := tx.User(targetID)
		if err != nil {
			return err
		}
		target.AddFollower(followerID)
		return nil
	})
	if err != nil {
		return err
	}
	s.saver.Notify()
	return nil
}

func (s *UserService) Unfollow(followerID, targetID string) error {
	err := s.store.Update(func(tx *store.Tx) error {
		if _, err := tx.User(followerID); err != nil {
			return err
		}
		target, err := tx.User(targetID)
		if err != nil {
			return err
		}
		target.RemoveFollower(followerID)
		return nil
	})
	if err != nil {
		return err
	}
	s.saver.Notify()
	return nil
}

func (s *UserService) SetIcon(userID, icon string) error {
	if icon == "" {
		return fmt.Errorf("icon: %w", apperr.ErrValidation)
	}
	err := s.store.Update(func(tx *store.Tx) error {
		user, err := tx.User(userID)
		if err != nil {
			return err
		}
		user.Icon = icon
		return nil
	})
	if err != nil {
		return err
	}
	s.saver.Notify()
	return nil
}

// AwardBanner grants a banner to a user. Admin only.
func (s *UserService) AwardBanner(requesterID, targetID, caption, rarity string) error {
	if caption == "" || rarity == "" {
		return fmt.Errorf("banner: %w", apperr.ErrValidation)
	}
	err := s.store.Update(func(tx *store.Tx) error {
		if err := requireAdmin(tx, requesterID); err != nil {
			return err
		}
		target, err := tx.User(targetID)
		if err != nil {
			return err
		}
		target.Banners = append(target.Banners, domain.Banner{Caption: caption, Rarity: rarity})
		return nil
	})
	if err != nil {
		return err
	}
	s.saver.Notify()
	return nil
}

// TransferBanner moves the banner at index from one user to another,
// preserving order on the receiving side. Admin only.
func (s *UserService) TransferBanner(requesterID, fromID, toID string, index int) error {
	err := s.store.Update(func(tx *store.Tx) error {
		if err := requireAdmin(tx, requesterID); err != nil {
			return err
		}
		from, err := tx.User(fromID)
		if err != nil {
			return err
		}
		to, err := tx.User(toID)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(from.Banners) {
			return fmt.Errorf("banner index %d: %w", index, apperr.ErrNotFound)
		}
		banner := from.Banners[index]
		from.Banners = append(from.Banners[:index], from.Banners[index+1:]...)
		to.Banners = append(to.Banners, banner)
		return nil
	})
	if err != nil {
		return err
	}
	s.saver.Notify()
	return nil
}

// Suspend sets a user's suspension level. Admin only.
func (s *UserService) Suspend(requesterID, targetID string, level int) error {
	if level < 0 || level > domain.MaxSuspensionLevel {
		return fmt.Errorf("suspension level %d: %w", level, apperr.ErrValidation)
	}
	err := s.store.Update(func(tx *store.Tx) error {
		if err := requireAdmin(tx, requesterID); err != nil {
			return err
		}
		target, err := tx.User(targetID)
		if err != nil {
			return err
		}
		target.SuspensionLevel = level
		return nil
	})
	if err != nil {
		return err
	}
	s.saver.Notify()
	return nil
}

func requireAdmin(tx *store.Tx, userID string) error {
	user, err := tx.User(userID)
	if err != nil {
		return err
	}
	if !user.IsAdmin {
		return fmt.Errorf("user %q is not an admin: %w", userID, apperr.ErrPermission)
	}
	return nil
}
