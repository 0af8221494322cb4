package main

import "time"

type Config struct {
	Host     string `env:"HOST,default=localhost"`
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	SnapshotPath string        `env:"SNAPSHOT_PATH,default=snapshot.bin"`
	SaveInterval time.Duration `env:"SAVE_INTERVAL,default=2s"`
	TokenTTL     time.Duration `env:"TOKEN_TTL,default=24h"`

	// When encryption is on, both keys must be base64-encoded 32-byte
	// values; the public key seals saves, the private key opens loads.
	EncryptSnapshots   bool   `env:"ENCRYPT_SNAPSHOTS,default=false"`
	SnapshotPublicKey  string `env:"SNAPSHOT_PUBLIC_KEY"`
	SnapshotPrivateKey string `env:"SNAPSHOT_PRIVATE_KEY"`
}
