// Package keys provides key-related helpers for authoring NCC signed records.
//
// API stability:
//
// Stable (SemVer-protected):
//   - Pure, deterministic primitives for steward-key formatting, role-seed
//     derivation, and record signing.
//
// Experimental:
//   - Filesystem-backed key storage and convenience helpers (KeyStore and related functions).
//     These are local-first utilities and are not part of the long-term protocol contract.
package keys
