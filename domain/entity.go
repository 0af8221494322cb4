// Package domain contains the core entities of the chat system.
// This file defines the tagged union stored under each identifier.
// No storage, network, or HTTP logic should be added here.
package domain

// Kind tags an entity inside the object store and its serialized form.
type Kind string

const (
	KindUser    Kind = "user"
	KindToken   Kind = "token"
	KindChat    Kind = "chat"
	KindMessage Kind = "message"
)

// Entity is the union of everything the object store can hold.
// Consumers switch on Kind exhaustively instead of inspecting types ad hoc.
type Entity interface {
	Kind() Kind
}
