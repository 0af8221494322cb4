package services

import (
	"fmt"
	"time"

	apperr "chat-vault/errors"

	"chat-vault/domain"
	"chat-vault/identity"
	"chat-vault/store"

	"github.com/samber/lo"
)

type IChatService interface {
	CreateChat(name, creatorID string) (*domain.Chat, error)
	PostMessage(chatID, authorID, content, replyID string) (*domain.Message, error)
	ListMessages(chatID, requesterID string) ([]*domain.Message, error)
	ListChatsFor(userID string) ([]*domain.Chat, error)
	ChatMembers(chatID, requesterID string) ([]*domain.User, error)
	JoinChat(chatID, userID string) error
	LeaveChat(chatID, userID string) error
	DeleteMessage(chatID, messageID, requesterID string) error
	DeleteChat(chatID, requesterID string) error
	DeleteUser(userID string) error
}

type ChatService struct {
	store *store.Store
	ids   *identity.Allocator
	saver Notifier
	now   func() time.Time
}

func NewChatService(s *store.Store, ids *identity.Allocator, saver Notifier) *ChatService {
	return &ChatService{store: s, ids: ids, saver: saver, now: time.Now}
}

// CreateChat creates a named chat. Names are unique among live chats and the
// creator becomes the first member. The returned chat is a detached copy.
func (s *ChatService) CreateChat(name, creatorID string) (*domain.Chat, error) {
	if name == "" {
		return nil, fmt.Errorf("chat name: %w", apperr.ErrValidation)
	}
	var chat *domain.Chat
	err := s.store.Update(func(tx *store.Tx) error {
		if _, err := tx.User(creatorID); err != nil {
			return err
		}
		for _, c := range tx.Chats() {
			if c.Name == name {
				return fmt.Errorf("chat name %q: %w", name, apperr.ErrConflict)
			}
		}
		id := s.ids.Allocate(identity.ObjectIDLength, identity.Func(tx.IDTaken))
		created := domain.NewChat(id, creatorID, name)
		if err := tx.Insert(id, created); err != nil {
			return err
		}
		chat = created.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.saver.Notify()
	return chat, nil
}

// PostMessage appends a message to a chat. Only members may post; a reply id,
// when given, must name a live message of the same chat.
func (s *ChatService) PostMessage(chatID, authorID, content, replyID string) (*domain.Message, error) {
	if content == "" {
		return nil, fmt.Errorf("message content: %w", apperr.ErrValidation)
	}
	var message *domain.Message
	err := s.store.Update(func(tx *store.Tx) error {
		chat, err := tx.Chat(chatID)
		if err != nil {
			return err
		}
		if !chat.HasUser(authorID) {
			return fmt.Errorf("user %q is not a member of chat %q: %w", authorID, chatID, apperr.ErrPermission)
		}
		if replyID != "" && !chat.HasMessage(replyID) {
			return fmt.Errorf("reply target %q: %w", replyID, apperr.ErrNotFound)
		}

		// The message id is unique within the chat's own namespace; the
		// store still rejects the astronomically unlikely global clash.
		id := s.ids.Allocate(identity.MessageIDLength, identity.SetOf(chat.MessageIDs))
		message = &domain.Message{
			ID:        id,
			ChatID:    chatID,
			AuthorID:  authorID,
			Content:   content,
			Timestamp: s.now().UTC(),
			ReplyID:   replyID,
		}
		if err := tx.Insert(id, message); err != nil {
			return err
		}
		chat.AppendMessage(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.saver.Notify()
	return message, nil
}

// ListMessages returns the chat's messages in insertion order. Members only.
// Messages are immutable once stored, so the pointers are safe to share.
func (s *ChatService) ListMessages(chatID, requesterID string) ([]*domain.Message, error) {
	var messages []*domain.Message
	err := s.store.View(func(tx *store.Tx) error {
		chat, err := tx.Chat(chatID)
		if err != nil {
			return err
		}
		if !chat.HasUser(requesterID) {
			return fmt.Errorf("user %q is not a member of chat %q: %w", requesterID, chatID, apperr.ErrPermission)
		}
		messages = make([]*domain.Message, 0, len(chat.Messages))
		for _, id := range chat.Messages {
			m, err := tx.Message(id)
			if err != nil {
				return err
			}
			messages = append(messages, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// ListChatsFor returns every chat the user is a member of, as detached
// copies: live store entities never escape the lock.
func (s *ChatService) ListChatsFor(userID string) ([]*domain.Chat, error) {
	var chats []*domain.Chat
	err := s.store.View(func(tx *store.Tx) error {
		chats = lo.FilterMap(tx.Chats(), func(c *domain.Chat, _ int) (*domain.Chat, bool) {
			if !c.HasUser(userID) {
				return nil, false
			}
			return c.Clone(), true
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// ChatMembers returns the chat's members in insertion order, as detached
// copies. Members only.
func (s *ChatService) ChatMembers(chatID, requesterID string) ([]*domain.User, error) {
	var members []*domain.User
	err := s.store.View(func(tx *store.Tx) error {
		chat, err := tx.Chat(chatID)
		if err != nil {
			return err
		}
		if !chat.HasUser(requesterID) {
			return fmt.Errorf("user %q is not a member of chat %q: %w", requesterID, chatID, apperr.ErrPermission)
		}
		members = make([]*domain.User, 0, len(chat.Users))
		for _, id := range chat.Users {
			u, err := tx.User(id)
			if err != nil {
				return err
			}
			members = append(members, u.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// JoinChat adds the user to the member list; joining twice is a no-op.
func (s *ChatService) JoinChat(chatID, userID string) error {
	err := s.store.Update(func(tx *store.Tx) error {
		chat, err := tx.Chat(chatID)
		if err != nil {
			return err
		}
		if _, err := tx.User(userID); err != nil {
			return err
		}
		chat.AddUser(userID)
		return nil
	})
	if err != nil {
		return err
	}
	s.saver.Notify()
	return nil
}

func (s *ChatService) LeaveChat(chatID, userID string) error {
	err := s.store.Update(func(tx *store.Tx) error {
		chat, err := tx.Chat(chatID)
		if err != nil {
			return err
		}
		if !chat.HasUser(userID) {
			return fmt.Errorf("user %q is not a member of chat %q: %w", userID, chatID, apperr.ErrNotFound)
		}
		chat.RemoveUser(userID)
		return nil
	})
	if err != nil {
		return err
	}
	s.saver.Notify()
	return nil
}

// DeleteMessage removes a message. Only its author or the chat creator may.
func (s *ChatService) DeleteMessage(chatID, messageID, requesterID string) error {
	err := s.store.Update(func(tx *store.Tx) error {
		chat, err := tx.Chat(chatID)
		if err != nil {
			return err
		}
		if !chat.HasMessage(messageID) {
			return fmt.Errorf("message %q: %w", messageID, apperr.ErrNotFound)
		}
		message, err := tx.Message(messageID)
		if err != nil {
			return err
		}
		if requesterID != message.AuthorID && requesterID != chat.CreatorID {
			return fmt.Errorf("user %q may not delete message %q: %w", requesterID, messageID, apperr.ErrPermission)
		}
		if err := tx.Remove(messageID); err != nil {
			return err
		}
		chat.DropMessage(messageID)
		return nil
	})
	if err != nil {
		return err
	}
	s.saver.Notify()
	return nil
}

// DeleteChat removes a chat and all of its messages. Creator only.
func (s *ChatService) DeleteChat(chatID, requesterID string) error {
	err := s.store.Update(func(tx *store.Tx) error {
		chat, err := tx.Chat(chatID)
		if err != nil {
			return err
		}
		if requesterID != chat.CreatorID {
			return fmt.Errorf("user %q may not delete chat %q: %w", requesterID, chatID, apperr.ErrPermission)
		}
		for _, id := range chat.Messages {
			if err := tx.Remove(id); err != nil {
				return err
			}
		}
		return tx.Remove(chatID)
	})
	if err != nil {
		return err
	}
	s.saver.Notify()
	return nil
}

// DeleteUser hard-deletes an account with cascading cleanup: its tokens, its
// membership in every chat and its messages all go; other users' messages
// stay intact.
func (s *ChatService) DeleteUser(userID string) error {
	err := s.store.Update(func(tx *store.Tx) error {
		user, err := tx.User(userID)
		if err != nil {
			return err
		}
		for _, t := range tx.Tokens() {
			if t.UserID == userID {
				if err := tx.Remove(t.ID); err != nil {
					return err
				}
			}
		}
		for _, chat := range tx.Chats() {
			chat.RemoveUser(userID)
			for _, id := range chat.Messages {
				m, err := tx.Message(id)
				if err != nil {
					return err
				}
				if m.AuthorID != userID {
					continue
				}
				if err := tx.Remove(id); err != nil {
					return err
				}
				chat.DropMessage(id)
			}
		}
		for _, other := range tx.Users() {
			other.RemoveFollower(userID)
		}
		return tx.Remove(user.ID)
	})
	if err != nil {
		return err
	}
	s.saver.Notify()
	return nil
}
