// Package keyring keeps nextstep secrets in the operating system keyring.
package keyring

import (
	"errors"
	"fmt"
	"strings"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/nextstep/internal/constants"
)

var (
	ErrNotFound           = errors.New("credentials not found in keyring")
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// availabilityItem is read by IsAvailable and never written.
const availabilityItem = "availability-check"

// Item is a single named secret under the nextstep service.
type Item string

// ConnectionString holds the DSN for remote storage backends.
var ConnectionString = Item(constants.DefaultKeyringUser)

func (it Item) Get() (string, error) {
	v, err := gokeyring.Get(constants.AppName, string(it))
	switch {
	case errors.Is(err, gokeyring.ErrNotFound):
		return "", ErrNotFound
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

func (it Item) Set(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("keyring item %q: value cannot be empty", string(it))
	}
	if err := gokeyring.Set(constants.AppName, string(it), value); err != nil {
		return fmt.Errorf("storing %q in keyring: %w", string(it), err)
	}
	return nil
}

// Delete returns ErrNotFound when nothing was stored.
func (it Item) Delete() error {
	err := gokeyring.Delete(constants.AppName, string(it))
	switch {
	case errors.Is(err, gokeyring.ErrNotFound):
		return ErrNotFound
	case err != nil:
		return fmt.Errorf("removing %q from keyring: %w", string(it), err)
	}
	return nil
}

func GetConnectionString() (string, error) { return ConnectionString.Get() }

func SetConnectionString(dsn string) error { return ConnectionString.Set(dsn) }

func DeleteConnectionString() error { return ConnectionString.Delete() }

// IsAvailable reports whether the keyring backend answers at all.
func IsAvailable() bool {
	_, err := Item(availabilityItem).Get()
	return err == nil || errors.Is(err, ErrNotFound)
}
