package domain

import "time"

// Token is a bearer session. The auth code is the opaque string a client
// presents; the token references its owner by id, never the reverse.
type Token struct {
	ID        string    `json:"id"`
	AuthCode  string    `json:"authCode"`
	UserID    string    `json:"userId"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (*Token) Kind() Kind { return KindToken }

// Expired reports whether the token is no longer valid at the given instant.
// The boundary counts: a token checked exactly at ExpiresAt is expired.
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
