// Package store holds all live state: a heterogeneous map from identifier to
// entity plus the secondary indexes the services rely on. Access follows a
// transaction-closure discipline: View runs under the read lock and may run
// concurrently with other views; Update and Snapshot take the write side, so
// a snapshot never observes a half-updated entity.
package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	apperr "chat-vault/errors"

	"chat-vault/domain"
)

type Store struct {
	mu        sync.RWMutex
	objects   map[string]domain.Entity
	usernames map[string]string // username -> user id
	authCodes map[string]string // auth code -> token id
}

func New() *Store {
	return &Store{
		objects:   make(map[string]domain.Entity),
		usernames: make(map[string]string),
		authCodes: make(map[string]string),
	}
}

// Update runs fn with exclusive access. There is no rollback: fn must not
// leave partial state behind when it fails.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{s: s, writable: true})
}

// View runs fn under the shared read lock.
func (s *Store) View(fn func(tx *Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&Tx{s: s})
}

// Tx is a handle into the store, valid only for the duration of the
// Update/View closure that produced it.
type Tx struct {
	s        *Store
	writable bool
}

// Insert stores an entity under id and maintains the secondary indexes.
func (tx *Tx) Insert(id string, e domain.Entity) error {
	if !tx.writable {
		return fmt.Errorf("insert %q: read-only transaction", id)
	}
	if _, ok := tx.s.objects[id]; ok {
		return fmt.Errorf("insert %q: %w", id, apperr.ErrDuplicateKey)
	}
	tx.s.objects[id] = e
	switch v := e.(type) {
	case *domain.User:
		tx.s.usernames[v.Username] = id
	case *domain.Token:
		tx.s.authCodes[v.AuthCode] = id
	}
	return nil
}

// Get returns the entity under id.
func (tx *Tx) Get(id string) (domain.Entity, error) {
	e, ok := tx.s.objects[id]
	if !ok {
		return nil, fmt.Errorf("get %q: %w", id, apperr.ErrNotFound)
	}
	return e, nil
}

// Remove deletes the entity under id and cleans up its index entries.
// Absent ids are an error: callers must handle absence explicitly.
func (tx *Tx) Remove(id string) error {
	if !tx.writable {
		return fmt.Errorf("remove %q: read-only transaction", id)
	}
	e, ok := tx.s.objects[id]
	if !ok {
		return fmt.Errorf("remove %q: %w", id, apperr.ErrNotFound)
	}
	delete(tx.s.objects, id)
	switch v := e.(type) {
	case *domain.User:
		delete(tx.s.usernames, v.Username)
	case *domain.Token:
		delete(tx.s.authCodes, v.AuthCode)
	}
	return nil
}

// IDTaken reports whether id names any live entity. Together with
// AuthCodeTaken it backs the allocator's exclusion sets.
func (tx *Tx) IDTaken(id string) bool {
	_, ok := tx.s.objects[id]
	return ok
}

func (tx *Tx) AuthCodeTaken(code string) bool {
	_, ok := tx.s.authCodes[code]
	return ok
}

// User returns the user under id, or ErrNotFound if the id is absent or
// names a different kind.
func (tx *Tx) User(id string) (*domain.User, error) {
	e, err := tx.Get(id)
	if err != nil {
		return nil, err
	}
	u, ok := e.(*domain.User)
	if !ok {
		return nil, fmt.Errorf("user %q: %w", id, apperr.ErrNotFound)
	}
	return u, nil
}

func (tx *Tx) Chat(id string) (*domain.Chat, error) {
	e, err := tx.Get(id)
	if err != nil {
		return nil, err
	}
	c, ok := e.(*domain.Chat)
	if !ok {
		return nil, fmt.Errorf("chat %q: %w", id, apperr.ErrNotFound)
	}
	return c, nil
}

func (tx *Tx) Message(id string) (*domain.Message, error) {
	e, err := tx.Get(id)
	if err != nil {
		return nil, err
	}
	m, ok := e.(*domain.Message)
	if !ok {
		return nil, fmt.Errorf("message %q: %w", id, apperr.ErrNotFound)
	}
	return m, nil
}

// UserByUsername resolves the username index.
func (tx *Tx) UserByUsername(username string) (*domain.User, error) {
	id, ok := tx.s.usernames[username]
	if !ok {
		return nil, fmt.Errorf("username %q: %w", username, apperr.ErrNotFound)
	}
	return tx.User(id)
}

func (tx *Tx) UsernameTaken(username string) bool {
	_, ok := tx.s.usernames[username]
	return ok
}

// TokenByCode resolves the auth-code index.
func (tx *Tx) TokenByCode(code string) (*domain.Token, error) {
	id, ok := tx.s.authCodes[code]
	if !ok {
		return nil, fmt.Errorf("auth code: %w", apperr.ErrNotFound)
	}
	e, err := tx.Get(id)
	if err != nil {
		return nil, err
	}
	t, ok := e.(*domain.Token)
	if !ok {
		return nil, fmt.Errorf("auth code: %w", apperr.ErrNotFound)
	}
	return t, nil
}

// Users returns every live user. Iteration order is unspecified.
func (tx *Tx) Users() []*domain.User {
	var out []*domain.User
	for _, e := range tx.s.objects {
		if u, ok := e.(*domain.User); ok {
			out = append(out, u)
		}
	}
	return out
}

func (tx *Tx) Chats() []*domain.Chat {
	var out []*domain.Chat
	for _, e := range tx.s.objects {
		if c, ok := e.(*domain.Chat); ok {
			out = append(out, c)
		}
	}
	return out
}

func (tx *Tx) Tokens() []*domain.Token {
	var out []*domain.Token
	for _, e := range tx.s.objects {
		if t, ok := e.(*domain.Token); ok {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of live entities.
func (tx *Tx) Len() int { return len(tx.s.objects) }

// Object is one serialized store entry.
type Object struct {
	ID   string          `json:"id"`
	Kind domain.Kind     `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// ViewData is the self-describing serializable form of the whole store.
type ViewData struct {
	Objects   []Object          `json:"objects"`
	Usernames map[string]string `json:"usernameIndex"`
	AuthCodes map[string]string `json:"authCodeIndex"`
}

// Snapshot captures the full store under the write lock, so no mutation can
// interleave with the copy. Objects are sorted by id to keep artifacts
// stable across saves of identical state.
func (s *Store) Snapshot() (*ViewData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := &ViewData{
		Objects:   make([]Object, 0, len(s.objects)),
		Usernames: make(map[string]string, len(s.usernames)),
		AuthCodes: make(map[string]string, len(s.authCodes)),
	}
	for id, e := range s.objects {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("snapshot %q: %w", id, err)
		}
		view.Objects = append(view.Objects, Object{ID: id, Kind: e.Kind(), Data: data})
	}
	sort.Slice(view.Objects, func(i, j int) bool {
		return view.Objects[i].ID < view.Objects[j].ID
	})
	for k, v := range s.usernames {
		view.Usernames[k] = v
	}
	for k, v := range s.authCodes {
		view.AuthCodes[k] = v
	}
	return view, nil
}

// Restore replaces the store contents with the given view. Indexes are
// rebuilt from the entities themselves; the serialized index maps are kept
// in the artifact for inspection but are not trusted over the objects.
func (s *Store) Restore(view *ViewData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	objects := make(map[string]domain.Entity, len(view.Objects))
	usernames := make(map[string]string)
	authCodes := make(map[string]string)
	for _, obj := range view.Objects {
		e, err := decodeEntity(obj)
		if err != nil {
			return err
		}
		if _, ok := objects[obj.ID]; ok {
			return fmt.Errorf("restore %q: %w", obj.ID, apperr.ErrDuplicateKey)
		}
		objects[obj.ID] = e
		switch v := e.(type) {
		case *domain.User:
			usernames[v.Username] = obj.ID
		case *domain.Token:
			authCodes[v.AuthCode] = obj.ID
		}
	}
	s.objects = objects
	s.usernames = usernames
	s.authCodes = authCodes
	return nil
}

func decodeEntity(obj Object) (domain.Entity, error) {
	var e domain.Entity
	switch obj.Kind {
	case domain.KindUser:
		e = new(domain.User)
	case domain.KindToken:
		e = new(domain.Token)
	case domain.KindChat:
		e = new(domain.Chat)
	case domain.KindMessage:
		e = new(domain.Message)
	default:
		return nil, fmt.Errorf("restore %q: unknown kind %q", obj.ID, obj.Kind)
	}
	if err := json.Unmarshal(obj.Data, e); err != nil {
		return nil, fmt.Errorf("restore %q: %w", obj.ID, err)
	}
	return e, nil
}
