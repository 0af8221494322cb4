// Command genkeys prints a fresh snapshot key pair in the base64 form the
// server configuration expects.
package main

import (
	"fmt"
	"log"

	"chat-vault/snapshot"
)

func main() {
	keys, err := snapshot.GenerateKeyPair()
	if err != nil {
		log.Fatalf("generating key pair: %v", err)
	}
	fmt.Printf("SNAPSHOT_PUBLIC_KEY=%s\n", snapshot.EncodeKey(keys.Public))
	fmt.Printf("SNAPSHOT_PRIVATE_KEY=%s\n", snapshot.EncodeKey(keys.Private))
}
