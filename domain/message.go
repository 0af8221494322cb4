// Package domain contains the core entities of the chat system.
// This file defines Message events. Messages are immutable once posted;
// the only permitted change is deletion.
package domain

import "time"

type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	ReplyID   string    `json:"replyId,omitempty"`
}

func (*Message) Kind() Kind { return KindMessage }
