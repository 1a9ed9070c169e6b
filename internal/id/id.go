package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the record kinds the server mints identifiers for.
const (
	PrefixUser         = "usr"
	PrefixCatalog      = "ctl"
	PrefixReview       = "rev"
	PrefixComment      = "cmt"
	PrefixNotification = "ntf"
	PrefixToken        = "tok"
	PrefixSSEClient    = "sse"
)

// Generate returns a prefixed NanoID such as "ctl-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	raw, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + raw, nil
}

// MustGenerate panics when the system cannot supply entropy.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return v
}
