package updater

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/lumison/lumison/errors"
)

// Minisign algorithm tags. "ED" signs the BLAKE2b-512 digest of the data,
// "Ed" signs the data itself.
const (
	algLegacy    = "Ed"
	algPrehashed = "ED"

	keyIDLen       = 8
	trustedPrefix  = "trusted comment: "
	untrustedShort = "untrusted comment:"
)

// PublicKey is a minisign Ed25519 public key.
type PublicKey struct {
	KeyID [keyIDLen]byte
	Key   ed25519.PublicKey
}

// signature is a decoded minisign signature file.
type signature struct {
	Algorithm      string
	KeyID          [keyIDLen]byte
	Sig            []byte
	TrustedComment string
	GlobalSig      []byte
}

// ParsePublicKey accepts either the bare key line ("RWQ...") or the
// base64 encoding of a whole minisign public key file, which is how
// release tooling usually distributes it.
func ParsePublicKey(s string) (*PublicKey, error) {
	line, err := keyLine(s)
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(line)
	if err != nil {
		return nil, fmt.Errorf("public key: %w", err)
	}
	if len(raw) != 2+keyIDLen+ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key: unexpected length %d", len(raw))
	}
	if string(raw[:2]) != algLegacy {
		return nil, fmt.Errorf("public key: unsupported algorithm %q", raw[:2])
	}

	pk := &PublicKey{Key: ed25519.PublicKey(append([]byte(nil), raw[2+keyIDLen:]...))}
	copy(pk.KeyID[:], raw[2:2+keyIDLen])
	return pk, nil
}

// keyLine extracts the base64 key line from s, unwrapping a base64
// encoded key file if needed.
func keyLine(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("public key is empty")
	}
	if !strings.Contains(s, "\n") {
		if decoded, err := base64.StdEncoding.DecodeString(s); err == nil && bytes.HasPrefix(decoded, []byte(untrustedShort)) {
			s = string(decoded)
		}
	}
	lines := nonEmptyLines(s)
	if len(lines) == 0 {
		return "", fmt.Errorf("public key is empty")
	}
	if strings.HasPrefix(lines[0], untrustedShort) {
		if len(lines) < 2 {
			return "", fmt.Errorf("public key file has no key line")
		}
		return lines[1], nil
	}
	return lines[0], nil
}

// parseSignature decodes a minisign signature file, optionally base64
// wrapped as release manifests carry it.
func parseSignature(s string) (*signature, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "\n") {
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("signature: %w", err)
		}
		s = string(decoded)
	}

	lines := nonEmptyLines(s)
	if len(lines) != 4 {
		return nil, fmt.Errorf("signature: expected 4 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], untrustedShort) {
		return nil, fmt.Errorf("signature: missing untrusted comment")
	}
	if !strings.HasPrefix(lines[2], trustedPrefix) {
		return nil, fmt.Errorf("signature: missing trusted comment")
	}

	raw, err := base64.StdEncoding.DecodeString(lines[1])
	if err != nil {
		return nil, fmt.Errorf("signature: %w", err)
	}
	if len(raw) != 2+keyIDLen+ed25519.SignatureSize {
		return nil, fmt.Errorf("signature: unexpected length %d", len(raw))
	}
	global, err := base64.StdEncoding.DecodeString(lines[3])
	if err != nil {
		return nil, fmt.Errorf("signature: global signature: %w", err)
	}
	if len(global) != ed25519.SignatureSize {
		return nil, fmt.Errorf("signature: global signature has length %d", len(global))
	}

	sig := &signature{
		Algorithm:      string(raw[:2]),
		Sig:            raw[2+keyIDLen:],
		TrustedComment: strings.TrimPrefix(lines[2], trustedPrefix),
		GlobalSig:      global,
	}
	copy(sig.KeyID[:], raw[2:2+keyIDLen])
	return sig, nil
}

// Verify checks data against a minisign signature made with pk. Every
// failure is a SIGNATURE_INVALID error.
func (pk *PublicKey) Verify(data []byte, sig string) error {
	s, err := parseSignature(sig)
	if err != nil {
		return errors.SignatureInvalid(err.Error())
	}
	return pk.verifySignature(data, s)
}

func (pk *PublicKey) verifySignature(data []byte, s *signature) error {
	if s.KeyID != pk.KeyID {
		return errors.SignatureInvalid(fmt.Sprintf("signed with key %X, expected %X", s.KeyID, pk.KeyID))
	}

	var msg []byte
	switch s.Algorithm {
	case algLegacy:
		msg = data
	case algPrehashed:
		sum := blake2b.Sum512(data)
		msg = sum[:]
	default:
		return errors.SignatureInvalid(fmt.Sprintf("unsupported algorithm %q", s.Algorithm))
	}

	if !ed25519.Verify(pk.Key, msg, s.Sig) {
		return errors.SignatureInvalid("signature does not match the artifact")
	}
	if !ed25519.Verify(pk.Key, append(append([]byte(nil), s.Sig...), s.TrustedComment...), s.GlobalSig) {
		return errors.SignatureInvalid("trusted comment signature does not match")
	}
	return nil
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
