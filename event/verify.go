package event

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
)

// Verifier validates that an event's id is the correct content hash and
// that its signature is valid for its pubkey.
//
// The chain resolver treats this as an opaque, swappable dependency; tests
// and remote-signer setups substitute their own implementation.
type Verifier interface {
	Verify(ev *Event) error
}

// Ed25519Verifier is the default verifier: id must equal
// hex(sha256(canonical serialization)) and sig must be a valid Ed25519
// signature by pubkey over sha256(canonical serialization).
type Ed25519Verifier struct{}

func (Ed25519Verifier) Verify(ev *Event) error {
	if ev == nil {
		return newError(KindCrypto, "NCC-CRYPTO-001", "nil event")
	}
	if err := ev.checkShape(); err != nil {
		return err
	}
	if ev.ComputeID() != ev.ID {
		return newError(KindCrypto, "NCC-CRYPTO-201", "id does not match content hash")
	}

	pub, err := hex.DecodeString(ev.PubKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return newError(KindCrypto, "NCC-CRYPTO-111", "invalid pubkey encoding")
	}
	sig, err := hex.DecodeString(ev.Sig)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return newError(KindCrypto, "NCC-CRYPTO-131", "invalid signature encoding")
	}

	digest := sha256.Sum256(ev.Serialize())
	if !ed25519.Verify(ed25519.PublicKey(pub), digest[:], sig) {
		return newError(KindCrypto, "NCC-CRYPTO-401", "signature invalid")
	}
	return nil
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ev *Event) error

func (f VerifierFunc) Verify(ev *Event) error { return f(ev) }
