// Package domain contains the core entities of the chat system.
// This file defines User accounts and their invariants.
package domain

import (
	"slices"

	"github.com/samber/lo"
)

// DefaultIcon is assigned to every account until the user picks one.
const DefaultIcon = "https://static.thenounproject.com/png/5034901-200.png"

// Suspension levels range from 0 (none) to MaxSuspensionLevel.
const MaxSuspensionLevel = 5

// User is an account. It is created on registration and mutated by password
// updates, follows, banner transfers and suspensions. Deletion is a hard
// delete handled by the services with cascading cleanup.
type User struct {
	ID              string   `json:"id"`
	Username        string   `json:"username"`
	PasswordHash    string   `json:"passwordHash"`
	Icon            string   `json:"icon"`
	Followers       []string `json:"followers,omitempty"`
	Banners         []Banner `json:"banners,omitempty"`
	SuspensionLevel int      `json:"suspensionLevel"`
	IsAdmin         bool     `json:"isAdmin"`
}

func NewUser(id, username, passwordHash string) *User {
	return &User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		Icon:         DefaultIcon,
	}
}

func (*User) Kind() Kind { return KindUser }

// AddFollower records a follower, keeping set semantics in insertion order.
func (u *User) AddFollower(userID string) {
	if !lo.Contains(u.Followers, userID) {
		u.Followers = append(u.Followers, userID)
	}
}

func (u *User) RemoveFollower(userID string) {
	u.Followers = lo.Filter(u.Followers, func(id string, _ int) bool {
		return id != userID
	})
}

// Clone returns a detached copy that stays valid after the store's lock is
// released.
func (u *User) Clone() *User {
	clone := *u
	clone.Followers = slices.Clone(u.Followers)
	clone.Banners = slices.Clone(u.Banners)
	return &clone
}
