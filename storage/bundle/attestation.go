package bundle

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"ncc.pub/ncc/keys"
)

// SigAlgDilithium3 is the only attestation signature algorithm in v1.
const SigAlgDilithium3 = "dilithium3"

// Attestation is an archive operator's countersignature over an exported
// bundle: a Dilithium3 signature over hash(bundle bytes). Export is
// deterministic, so the subject digest is reproducible from the store
// contents and any holder of the bundle can check the attestation offline.
type Attestation struct {
	SubjectDigest string `json:"subjectDigest"` // hex sha256 of the bundle bytes
	HashAlg       string `json:"hashAlg"`       // digest the signature covers: sha256, sha512, or sha3-256
	SigAlg        string `json:"sigAlg"`
	PublicKey     string `json:"publicKey"` // base64 Dilithium3 public key
	Signature     string `json:"signature"` // base64
	CreatedAt     int64  `json:"createdAt,omitempty"`
}

// Attest countersigns bundle bytes with a Dilithium3 key.
func Attest(bundleBytes []byte, hashAlg string, priv *mode3.PrivateKey, createdAt int64) (*Attestation, error) {
	if len(bundleBytes) == 0 {
		return nil, fmt.Errorf("bundle: nothing to attest")
	}
	sig, err := keys.SignDilithium3(bundleBytes, hashAlg, priv)
	if err != nil {
		return nil, err
	}
	pub, ok := priv.Public().(*mode3.PublicKey)
	if !ok {
		return nil, fmt.Errorf("bundle: unexpected public key type %T", priv.Public())
	}
	pubBytes, err := pub.MarshalBinary()
	if err != nil {
		return nil, err
	}
	subject := sha256.Sum256(bundleBytes)
	return &Attestation{
		SubjectDigest: hex.EncodeToString(subject[:]),
		HashAlg:       hashAlg,
		SigAlg:        SigAlgDilithium3,
		PublicKey:     base64.StdEncoding.EncodeToString(pubBytes),
		Signature:     sig,
		CreatedAt:     createdAt,
	}, nil
}

// Verify checks the attestation against the bundle bytes it claims to cover.
func (a *Attestation) Verify(bundleBytes []byte) error {
	if a.SigAlg != SigAlgDilithium3 {
		return fmt.Errorf("bundle: unsupported attestation signature algorithm %q", a.SigAlg)
	}
	subject := sha256.Sum256(bundleBytes)
	if a.SubjectDigest != hex.EncodeToString(subject[:]) {
		return fmt.Errorf("bundle: attestation subject digest does not match bundle")
	}
	pubBytes, err := base64.StdEncoding.DecodeString(a.PublicKey)
	if err != nil {
		return fmt.Errorf("bundle: invalid attestation public key: %w", err)
	}
	var pub mode3.PublicKey
	if err := pub.UnmarshalBinary(pubBytes); err != nil {
		return fmt.Errorf("bundle: invalid attestation public key: %w", err)
	}
	ok, err := keys.VerifyDilithium3(bundleBytes, a.HashAlg, a.Signature, &pub)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bundle: attestation signature invalid")
	}
	return nil
}

// Marshal renders the attestation as indented JSON for on-disk storage next
// to the bundle file.
func (a *Attestation) Marshal() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// ParseAttestation decodes an attestation file. Unknown fields fail, like
// bundle import: an attestation carrying data we do not understand is not
// one we can vouch for.
func ParseAttestation(data []byte) (*Attestation, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var a Attestation
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("bundle: invalid attestation: %w", err)
	}
	return &a, nil
}
