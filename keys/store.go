package keys

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// KeyStore holds Ed25519 seeds on the local filesystem, one directory per
// signer: <dir>/<name>/root.key plus <dir>/<name>/roles/<role>.key for
// derived role keys. Seed files are hex, created 0600, and never
// overwritten unless the caller asks.
type KeyStore struct {
	Directory string
}

// KeyEntry is one signer as reported by ListKeys.
type KeyEntry struct {
	Identifier string
	Roles      []string
}

// DefaultDirectory returns ~/.ncc/keys.
func DefaultDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ncc", "keys"), nil
}

// NewKeyStore opens a key store at dir, defaulting to DefaultDirectory.
// The directory is created lazily on the first write.
func NewKeyStore(dir string) (*KeyStore, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: dir}, nil
}

func (ks *KeyStore) rootKeyPath(name string) string {
	return filepath.Join(ks.Directory, name, "root.key")
}

func (ks *KeyStore) roleKeyPath(name, role string) string {
	return filepath.Join(ks.Directory, name, "roles", role+".key")
}

// checkPathToken guards names that become path segments: alphanumerics,
// dash, and underscore only.
func checkPathToken(kind, v string) error {
	if v == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	for _, c := range v {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in %s", c, kind)
	}
	return nil
}

// CheckKeyName validates a signer name.
func CheckKeyName(name string) error { return checkPathToken("identifier", name) }

// CheckRole validates a role name.
func CheckRole(role string) error { return checkPathToken("role", role) }

// ParseSeedHex decodes a 32-byte Ed25519 seed from hex, tolerating
// surrounding whitespace and a 0x prefix.
func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return seed, nil
}

func (ks *KeyStore) writeSeedFile(path string, seed []byte, overwrite bool) error {
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", ed25519.SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return f.Close()
}

func (ks *KeyStore) readSeedFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(strings.TrimSpace(string(data)))
}

// InitializeRootKey stores seed as the root key for name and returns the
// public key and the seed file path. Fails if the key exists, unless
// overwrite is set.
func (ks *KeyStore) InitializeRootKey(name string, seed []byte, overwrite bool) (pubKeyHex string, filePath string, err error) {
	if err := CheckKeyName(name); err != nil {
		return "", "", err
	}
	filePath = ks.rootKeyPath(name)
	if err := ks.writeSeedFile(filePath, seed, overwrite); err != nil {
		return "", "", err
	}
	return PublicKeyHexFromSeed(seed), filePath, nil
}

// DeriveKeyFromRole derives and stores the role key for an existing root
// key. The derivation is deterministic, so a lost role key file is
// recoverable from the root seed.
func (ks *KeyStore) DeriveKeyFromRole(from, role string, overwrite bool) (pubKeyHex string, filePath string, err error) {
	if err := CheckKeyName(from); err != nil {
		return "", "", err
	}
	if err := CheckRole(role); err != nil {
		return "", "", err
	}
	rootSeed, err := ks.readSeedFile(ks.rootKeyPath(from))
	if err != nil {
		return "", "", err
	}
	roleSeed, err := DeriveRoleSeed(rootSeed, role)
	if err != nil {
		return "", "", err
	}
	filePath = ks.roleKeyPath(from, role)
	if err := ks.writeSeedFile(filePath, roleSeed, overwrite); err != nil {
		return "", "", err
	}
	return PublicKeyHexFromSeed(roleSeed), filePath, nil
}

// ExportKey returns the public key for a stored root key, or for one of its
// role keys when role is non-empty.
func (ks *KeyStore) ExportKey(name string, role string) (string, error) {
	if err := CheckKeyName(name); err != nil {
		return "", err
	}
	var seed []byte
	var err error
	if role == "" {
		seed, err = ks.readSeedFile(ks.rootKeyPath(name))
	} else {
		if err := CheckRole(role); err != nil {
			return "", err
		}
		seed, err = ks.readSeedFile(ks.roleKeyPath(name, role))
	}
	if err != nil {
		return "", err
	}
	return PublicKeyHexFromSeed(seed), nil
}

// LoadSeed resolves one of the signer selection forms: a literal hex seed,
// a seed file path, or a stored signer name with an optional role.
func (ks *KeyStore) LoadSeed(seedHex, signerName, signerRole, keyFile string) ([]byte, error) {
	if seedHex != "" {
		return ParseSeedHex(seedHex)
	}
	if keyFile != "" {
		return ks.readSeedFile(keyFile)
	}
	if signerName != "" {
		if err := CheckKeyName(signerName); err != nil {
			return nil, err
		}
		if signerRole == "" {
			return ks.readSeedFile(ks.rootKeyPath(signerName))
		}
		if err := CheckRole(signerRole); err != nil {
			return nil, err
		}
		return ks.readSeedFile(ks.roleKeyPath(signerName, signerRole))
	}
	return nil, errors.New("no signer provided")
}

// ListKeys returns every stored signer and its role keys, sorted by name.
func (ks *KeyStore) ListKeys() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var out []KeyEntry
	for _, name := range names {
		roleEntries, rerr := os.ReadDir(filepath.Join(ks.Directory, name, "roles"))
		var roles []string
		if rerr == nil {
			for _, re := range roleEntries {
				if re.IsDir() {
					continue
				}
				if strings.HasSuffix(re.Name(), ".key") {
					roles = append(roles, strings.TrimSuffix(re.Name(), ".key"))
				}
			}
			sort.Strings(roles)
		}
		out = append(out, KeyEntry{Identifier: name, Roles: roles})
	}
	return out, nil
}
