// Package snapshot persists the full store state as a single artifact:
// JSON, gzipped, optionally sealed to a public key, written atomically.
// Load reverses the pipeline at startup.
package snapshot

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	apperr "chat-vault/errors"

	"chat-vault/store"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/crypto/nacl/box"
)

// KeyPair holds the asymmetric keys for sealed snapshots. Save needs only
// the public key; Load needs both.
type KeyPair struct {
	Public  *[32]byte
	Private *[32]byte
}

// GenerateKeyPair creates a fresh snapshot key pair.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{Public: pub, Private: priv}, nil
}

// ParseKey decodes a base64-encoded 32-byte key as carried in configuration.
func ParseKey(encoded string) (*[32]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("decode key: want 32 bytes, got %d", len(raw))
	}
	key := new([32]byte)
	copy(key[:], raw)
	return key, nil
}

// EncodeKey is the inverse of ParseKey, used by key-generation tooling.
func EncodeKey(key *[32]byte) string {
	return base64.StdEncoding.EncodeToString(key[:])
}

// Persister writes and reads the snapshot artifact. Saves are serialized by
// an internal mutex, so overlapping triggers can never interleave writes.
type Persister struct {
	mu      sync.Mutex
	path    string
	encrypt bool
	keys    KeyPair
	log     *slog.Logger
}

// New returns a persister writing to path. When encrypt is true the
// compressed bytes are sealed to keys.Public on save and opened with both
// keys on load.
func New(path string, encrypt bool, keys KeyPair, log *slog.Logger) *Persister {
	return &Persister{path: path, encrypt: encrypt, keys: keys, log: log}
}

// Save runs the pipeline: serialize, compress, optionally seal, then write
// to a unique temp file and rename over the artifact. A crash mid-write
// leaves the previously committed snapshot intact.
func (p *Persister) Save(view *store.ViewData) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	serialized, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("serialize snapshot: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(serialized); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	payload := buf.Bytes()

	if p.encrypt {
		sealed, err := box.SealAnonymous(nil, payload, p.keys.Public, rand.Reader)
		if err != nil {
			return fmt.Errorf("seal snapshot: %w", err)
		}
		payload = sealed
	}

	if err := p.writeAtomic(payload); err != nil {
		return err
	}
	p.log.Debug("snapshot committed", "path", p.path, "bytes", len(payload))
	return nil
}

func (p *Persister) writeAtomic(payload []byte) error {
	tmp := fmt.Sprintf("%s.%s.tmp", p.path, uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit artifact: %w", err)
	}
	return nil
}

// Load reads the artifact and reverses the pipeline. A missing or empty
// artifact is a cold start and returns (nil, nil). A present artifact that
// cannot be opened, decompressed or decoded returns an error wrapping
// ErrPersistence; the caller must treat that as fatal rather than start
// with an empty store.
func (p *Persister) Load() (*store.ViewData, error) {
	payload, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	if len(payload) == 0 {
		return nil, nil
	}

	if p.encrypt {
		opened, ok := box.OpenAnonymous(nil, payload, p.keys.Public, p.keys.Private)
		if !ok {
			return nil, fmt.Errorf("open sealed artifact %s: %w", p.path, apperr.ErrPersistence)
		}
		payload = opened
	}

	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("decompress artifact %s: %v: %w", p.path, err, apperr.ErrPersistence)
	}
	serialized, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress artifact %s: %v: %w", p.path, err, apperr.ErrPersistence)
	}
	if err := zr.Close(); err != nil {
		return nil, fmt.Errorf("decompress artifact %s: %v: %w", p.path, err, apperr.ErrPersistence)
	}

	var view store.ViewData
	if err := json.Unmarshal(serialized, &view); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %v: %w", p.path, err, apperr.ErrPersistence)
	}
	return &view, nil
}
