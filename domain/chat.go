// Package domain contains the core entities of the chat system.
// This file defines Chat rooms and their membership rules.
package domain

import (
	"slices"

	"github.com/samber/lo"
)

// Chat is a named room. The creator is implicitly its first member. Members
// and messages keep insertion order for display. MessageIDs is the chat's
// private id namespace: it grows append-only even when messages are deleted,
// so an id is never reissued within the chat.
type Chat struct {
	ID         string   `json:"id"`
	CreatorID  string   `json:"creatorId"`
	Name       string   `json:"name"`
	Users      []string `json:"users"`
	Messages   []string `json:"messages"`
	MessageIDs []string `json:"messageIds"`
}

func NewChat(id, creatorID, name string) *Chat {
	return &Chat{
		ID:        id,
		CreatorID: creatorID,
		Name:      name,
		Users:     []string{creatorID},
	}
}

func (*Chat) Kind() Kind { return KindChat }

func (c *Chat) HasUser(userID string) bool {
	return lo.Contains(c.Users, userID)
}

func (c *Chat) AddUser(userID string) {
	if !c.HasUser(userID) {
		c.Users = append(c.Users, userID)
	}
}

func (c *Chat) RemoveUser(userID string) {
	c.Users = lo.Filter(c.Users, func(id string, _ int) bool {
		return id != userID
	})
}

// AppendMessage records a message id in both the display order and the
// chat's id namespace.
func (c *Chat) AppendMessage(messageID string) {
	c.Messages = append(c.Messages, messageID)
	c.MessageIDs = append(c.MessageIDs, messageID)
}

// DropMessage removes a message id from the display order only; the id stays
// reserved in MessageIDs.
func (c *Chat) DropMessage(messageID string) {
	c.Messages = lo.Filter(c.Messages, func(id string, _ int) bool {
		return id != messageID
	})
}

func (c *Chat) HasMessage(messageID string) bool {
	return lo.Contains(c.Messages, messageID)
}

// Clone returns a detached copy that stays valid after the store's lock is
// released.
func (c *Chat) Clone() *Chat {
	clone := *c
	clone.Users = slices.Clone(c.Users)
	clone.Messages = slices.Clone(c.Messages)
	clone.MessageIDs = slices.Clone(c.MessageIDs)
	return &clone
}
