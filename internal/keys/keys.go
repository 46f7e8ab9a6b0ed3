// Package keys generates and verifies the per-talk capability tokens.
//
// A talk carries three independent tokens: the view key (shareable,
// read/comment), the upload key (add a submission) and the manage key
// (delete comments/submissions). Possession of the exact token is the
// whole authorization; verification must not reveal which token was
// wrong, so every mismatch surfaces as "not found" upstream.
package keys

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
)

// tokenBytes gives 256 bits of entropy, double the required minimum.
const tokenBytes = 32

// New returns a fresh URL-safe capability token.
func New() string {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms; refusing to
		// continue is safer than issuing a weak key.
		panic("keys: crypto/rand unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// NewPair returns a (view, upload, manage) triple, re-rolling in the
// astronomically unlikely event of a collision so the pairwise
// distinctness invariant holds unconditionally.
func NewPair() (view, upload, manage string) {
	view = New()
	upload = New()
	for upload == view {
		upload = New()
	}
	manage = New()
	for manage == view || manage == upload {
		manage = New()
	}
	return view, upload, manage
}

// Verify compares a presented token against the stored one in constant
// time. Empty stored keys never match.
func Verify(stored, presented string) bool {
	if stored == "" || len(stored) != len(presented) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
