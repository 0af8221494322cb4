package services

import (
	"fmt"
	"sync"
	"testing"

	apperr "chat-vault/errors"

	"chat-vault/domain"
	"chat-vault/identity"
	"chat-vault/store"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func newChatFixture(t *testing.T) (*ChatService, *store.Store) {
	t.Helper()
	s := store.New()
	require.NoError(t, s.Update(func(tx *store.Tx) error {
		for i, name := range []string{"alice", "bob", "clara"} {
			id := fmt.Sprintf("u%d", i+1)
			if err := tx.Insert(id, domain.NewUser(id, name, "hash")); err != nil {
				return err
			}
		}
		return nil
	}))
	return NewChatService(s, identity.New(), NopNotifier{}), s
}

func TestCreateChat(t *testing.T) {
	req := require.New(t)
	svc, _ := newChatFixture(t)

	chat, err := svc.CreateChat("general", "u1")
	req.NoError(err)
	req.Equal("general", chat.Name)
	req.Equal("u1", chat.CreatorID)
	// The creator is automatically a member.
	req.Equal([]string{"u1"}, chat.Users)
}

func TestCreateChat_NameConflict(t *testing.T) {
	req := require.New(t)
	svc, _ := newChatFixture(t)

	_, err := svc.CreateChat("general", "u1")
	req.NoError(err)
	_, err = svc.CreateChat("general", "u2")
	req.ErrorIs(err, apperr.ErrConflict)
}

func TestCreateChat_NameFreedByDeletion(t *testing.T) {
	req := require.New(t)
	svc, _ := newChatFixture(t)

	chat, err := svc.CreateChat("general", "u1")
	req.NoError(err)
	req.NoError(svc.DeleteChat(chat.ID, "u1"))

	// Uniqueness applies to live chats only.
	_, err = svc.CreateChat("general", "u2")
	req.NoError(err)
}

func TestPostMessage_MembershipAndOrder(t *testing.T) {
	req := require.New(t)
	svc, _ := newChatFixture(t)

	chat, err := svc.CreateChat("general", "u1")
	req.NoError(err)

	_, err = svc.PostMessage(chat.ID, "u2", "hi", "")
	req.ErrorIs(err, apperr.ErrPermission)

	req.NoError(svc.JoinChat(chat.ID, "u2"))

	first, err := svc.PostMessage(chat.ID, "u1", "first", "")
	req.NoError(err)
	second, err := svc.PostMessage(chat.ID, "u2", "second", first.ID)
	req.NoError(err)
	req.Equal(first.ID, second.ReplyID)

	messages, err := svc.ListMessages(chat.ID, "u2")
	req.NoError(err)
	req.Equal([]string{"first", "second"}, lo.Map(messages, func(m *domain.Message, _ int) string {
		return m.Content
	}))
}

func TestPostMessage_ReplyMustExist(t *testing.T) {
	req := require.New(t)
	svc, _ := newChatFixture(t)

	chat, err := svc.CreateChat("general", "u1")
	req.NoError(err)

	_, err = svc.PostMessage(chat.ID, "u1", "hello", "no-such-message")
	req.ErrorIs(err, apperr.ErrNotFound)
}

func TestListMessages_NonMemberRejected(t *testing.T) {
	req := require.New(t)
	svc, _ := newChatFixture(t)

	chat, err := svc.CreateChat("general", "u1")
	req.NoError(err)

	_, err = svc.ListMessages(chat.ID, "u3")
	req.ErrorIs(err, apperr.ErrPermission)
}

func TestListChatsFor(t *testing.T) {
	req := require.New(t)
	svc, _ := newChatFixture(t)

	general, err := svc.CreateChat("general", "u1")
	req.NoError(err)
	_, err = svc.CreateChat("private", "u2")
	req.NoError(err)
	req.NoError(svc.JoinChat(general.ID, "u3"))

	chats, err := svc.ListChatsFor("u3")
	req.NoError(err)
	req.Len(chats, 1)
	req.Equal("general", chats[0].Name)
}

func TestChatMembers_InsertionOrder(t *testing.T) {
	req := require.New(t)
	svc, _ := newChatFixture(t)

	chat, err := svc.CreateChat("general", "u1")
	req.NoError(err)
	req.NoError(svc.JoinChat(chat.ID, "u3"))
	req.NoError(svc.JoinChat(chat.ID, "u2"))
	// Joining twice is a no-op.
	req.NoError(svc.JoinChat(chat.ID, "u3"))

	members, err := svc.ChatMembers(chat.ID, "u1")
	req.NoError(err)
	req.Equal([]string{"alice", "clara", "bob"}, lo.Map(members, func(u *domain.User, _ int) string {
		return u.Username
	}))
}

func TestReadResultsAreDetached(t *testing.T) {
	req := require.New(t)
	svc, s := newChatFixture(t)

	chat, err := svc.CreateChat("general", "u1")
	req.NoError(err)
	chats, err := svc.ListChatsFor("u1")
	req.NoError(err)
	members, err := svc.ChatMembers(chat.ID, "u1")
	req.NoError(err)

	req.NoError(svc.JoinChat(chat.ID, "u2"))
	req.NoError(s.Update(func(tx *store.Tx) error {
		u1, err := tx.User("u1")
		req.NoError(err)
		u1.AddFollower("u2")
		return nil
	}))

	// Mutations after the read are invisible through the returned values.
	req.Equal([]string{"u1"}, chat.Users)
	req.Equal([]string{"u1"}, chats[0].Users)
	req.Empty(members[0].Followers)
}

func TestConcurrentReadersAndMembershipChanges(t *testing.T) {
	req := require.New(t)
	svc, _ := newChatFixture(t)

	chat, err := svc.CreateChat("general", "u1")
	req.NoError(err)

	// Run with -race: readers walk member lists while another goroutine
	// churns the same chat's membership.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				_ = svc.JoinChat(chat.ID, "u2")
			} else {
				_ = svc.LeaveChat(chat.ID, "u2")
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			chats, err := svc.ListChatsFor("u1")
			if err != nil {
				continue
			}
			for _, c := range chats {
				for _, id := range c.Users {
					_ = id
				}
			}
			if members, err := svc.ChatMembers(chat.ID, "u1"); err == nil {
				for _, m := range members {
					_ = m.Followers
				}
			}
		}
	}()
	wg.Wait()
}

func TestLeaveChat(t *testing.T) {
	req := require.New(t)
	svc, _ := newChatFixture(t)

	chat, err := svc.CreateChat("general", "u1")
	req.NoError(err)
	req.NoError(svc.JoinChat(chat.ID, "u2"))
	req.NoError(svc.LeaveChat(chat.ID, "u2"))

	_, err = svc.ListMessages(chat.ID, "u2")
	req.ErrorIs(err, apperr.ErrPermission)

	req.ErrorIs(svc.LeaveChat(chat.ID, "u2"), apperr.ErrNotFound)
}

func TestDeleteMessage_AuthorOrCreatorOnly(t *testing.T) {
	req := require.New(t)
	svc, s := newChatFixture(t)

	chat, err := svc.CreateChat("general", "u1")
	req.NoError(err)
	req.NoError(svc.JoinChat(chat.ID, "u2"))
	req.NoError(svc.JoinChat(chat.ID, "u3"))

	message, err := svc.PostMessage(chat.ID, "u2", "delete me", "")
	req.NoError(err)

	req.ErrorIs(svc.DeleteMessage(chat.ID, message.ID, "u3"), apperr.ErrPermission)
	req.NoError(svc.DeleteMessage(chat.ID, message.ID, "u2"))

	messages, err := svc.ListMessages(chat.ID, "u1")
	req.NoError(err)
	req.Empty(messages)
	req.NoError(s.View(func(tx *store.Tx) error {
		_, err := tx.Message(message.ID)
		req.ErrorIs(err, apperr.ErrNotFound)
		return nil
	}))
}

func TestDeleteChat_CreatorOnly(t *testing.T) {
	req := require.New(t)
	svc, s := newChatFixture(t)

	chat, err := svc.CreateChat("general", "u1")
	req.NoError(err)
	req.NoError(svc.JoinChat(chat.ID, "u2"))
	message, err := svc.PostMessage(chat.ID, "u2", "hello", "")
	req.NoError(err)

	req.ErrorIs(svc.DeleteChat(chat.ID, "u2"), apperr.ErrPermission)

	req.NoError(svc.DeleteChat(chat.ID, "u1"))
	req.NoError(s.View(func(tx *store.Tx) error {
		_, err := tx.Chat(chat.ID)
		req.ErrorIs(err, apperr.ErrNotFound)
		_, err = tx.Message(message.ID)
		req.ErrorIs(err, apperr.ErrNotFound)
		return nil
	}))
}

func TestDeleteUser_Cascades(t *testing.T) {
	req := require.New(t)
	svc, s := newChatFixture(t)

	chat, err := svc.CreateChat("general", "u1")
	req.NoError(err)
	req.NoError(svc.JoinChat(chat.ID, "u2"))

	kept, err := svc.PostMessage(chat.ID, "u1", "stays", "")
	req.NoError(err)
	_, err = svc.PostMessage(chat.ID, "u2", "goes", "")
	req.NoError(err)

	// u2 follows u1 and vice versa; both directions must be cleaned up.
	req.NoError(s.Update(func(tx *store.Tx) error {
		u1, err := tx.User("u1")
		req.NoError(err)
		u1.AddFollower("u2")
		u2, err := tx.User("u2")
		req.NoError(err)
		u2.AddFollower("u1")
		return nil
	}))

	req.NoError(svc.DeleteUser("u2"))

	req.NoError(s.View(func(tx *store.Tx) error {
		_, err := tx.User("u2")
		req.ErrorIs(err, apperr.ErrNotFound)
		req.False(tx.UsernameTaken("bob"))

		fresh, err := tx.Chat(chat.ID)
		req.NoError(err)
		req.Equal([]string{"u1"}, fresh.Users)
		req.Equal([]string{kept.ID}, fresh.Messages)

		u1, err := tx.User("u1")
		req.NoError(err)
		req.Empty(u1.Followers)
		return nil
	}))

	messages, err := svc.ListMessages(chat.ID, "u1")
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("stays", messages[0].Content)
}

func TestDeleteUser_RevokesTokens(t *testing.T) {
	req := require.New(t)
	svc, s := newChatFixture(t)

	req.NoError(s.Update(func(tx *store.Tx) error {
		return tx.Insert("t1", &domain.Token{ID: "t1", AuthCode: "code-1", UserID: "u2"})
	}))

	req.NoError(svc.DeleteUser("u2"))
	req.NoError(s.View(func(tx *store.Tx) error {
		req.Empty(tx.Tokens())
		req.False(tx.AuthCodeTaken("code-1"))
		return nil
	}))
}
