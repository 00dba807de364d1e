// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"

	"github.com/bureau-foundation/serverlink/lib/secret"
)

// Prefix marks a sealed field value.
const Prefix = "sealed:"

// Sealer seals and opens field values with one age identity. Safe for
// concurrent use.
type Sealer struct {
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

// GenerateIdentity creates a new x25519 identity. It returns the
// identity file contents (AGE-SECRET-KEY-1...) and the public
// recipient string (age1...).
func GenerateIdentity() (identityText, recipient string, err error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", "", fmt.Errorf("generating age identity: %w", err)
	}
	return identity.String() + "\n", identity.Recipient().String(), nil
}

// NewSealer parses an AGE-SECRET-KEY-1... string.
func NewSealer(identityText string) (*Sealer, error) {
	identity, err := age.ParseX25519Identity(strings.TrimSpace(identityText))
	if err != nil {
		return nil, fmt.Errorf("parsing age identity: %w", err)
	}
	return &Sealer{identity: identity, recipient: identity.Recipient()}, nil
}

// LoadIdentityFile reads an age identity file. Comment lines are
// allowed; the file must contain exactly one x25519 identity.
func LoadIdentityFile(path string) (*Sealer, error) {
	contents, err := secret.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}
	defer contents.Close()

	identities, err := age.ParseIdentities(bytes.NewReader(contents.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("parsing identity file %s: %w", path, err)
	}
	if len(identities) != 1 {
		return nil, fmt.Errorf("identity file %s: want exactly one identity, found %d", path, len(identities))
	}
	identity, ok := identities[0].(*age.X25519Identity)
	if !ok {
		return nil, fmt.Errorf("identity file %s: not an x25519 identity", path)
	}
	return &Sealer{identity: identity, recipient: identity.Recipient()}, nil
}

// Recipient returns the public half of the sealing identity.
func (s *Sealer) Recipient() string {
	return s.recipient.String()
}

// Seal encrypts plaintext. Empty and already-sealed values are
// returned unchanged.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" || IsSealed(plaintext) {
		return plaintext, nil
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, s.recipient)
	if err != nil {
		return "", fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := io.WriteString(writer, plaintext); err != nil {
		return "", fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing age encryption: %w", err)
	}
	return Prefix + base64.StdEncoding.EncodeToString(ciphertext.Bytes()), nil
}

// Open decrypts a sealed value. Values without [Prefix] are returned
// unchanged.
func (s *Sealer) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, Prefix))
	if err != nil {
		return "", fmt.Errorf("decoding sealed value: %w", err)
	}
	reader, err := age.Decrypt(bytes.NewReader(raw), s.identity)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if errors.As(err, &noMatch) {
			return "", fmt.Errorf("sealed value was encrypted to a different identity: %w", err)
		}
		return "", fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("reading decrypted plaintext: %w", err)
	}
	return string(plaintext), nil
}

// IsSealed reports whether value carries the sealed prefix.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, Prefix)
}
