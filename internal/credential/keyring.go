// Package credential keeps secrets such as the IMAP password and the CLI
// session token in the system keyring.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "novelstudio"

// Well-known keys.
const (
	KeyIMAPPassword = "share.imap_password"
	KeySessionToken = "session.token"
)

// ErrNotFound is returned by Get when the key has no stored value.
var ErrNotFound = errors.New("credential not found")

// openKeyring returns a configured keyring instance.
var openKeyring = func() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/novelstudio/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("novelstudio-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "novelstudio " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring. Deleting a
// missing key is not an error.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// Use makes every later call go to ring and returns a func restoring the
// previous keyring.
func Use(ring keyring.Keyring) (restore func()) {
	orig := openKeyring
	openKeyring = func() (keyring.Keyring, error) { return ring, nil }
	return func() { openKeyring = orig }
}
