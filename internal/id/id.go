// Package id generates the prefixed identifiers used for Askboard entities.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes. The prefix makes an identifier self-describing in logs and URLs.
const (
	PrefixQuestion = "q"
	PrefixAnswer   = "a"
	PrefixUser     = "u"
	PrefixSession  = "sess"
	PrefixClient   = "sse"
)

// Generate returns prefix + "-" + a 21 character URL-safe NanoID,
// e.g. "q-V1StGXR8_Z5jdHi6B-myT".
//
// It fails only when the system cannot supply secure randomness.
func Generate(prefix string) (string, error) {
	nid, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + nid, nil
}

// MustGenerate is like Generate but panics on failure.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return v
}
