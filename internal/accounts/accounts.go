// Package accounts is the passwordless local account directory: a list of
// known identities plus a pointer to the signed-in one.
package accounts

import (
	"context"
	"encoding/json"

	"github.com/julianstephens/nextstep/internal/constants"
	apperr "github.com/julianstephens/nextstep/internal/errors"
	"github.com/julianstephens/nextstep/internal/logger"
	"github.com/julianstephens/nextstep/internal/models"
	"github.com/julianstephens/nextstep/internal/storage"
)

type Directory struct {
	provider storage.Provider
}

func New(provider storage.Provider) *Directory {
	return &Directory{provider: provider}
}

// List returns known identities in the order they were first signed in.
// An unreadable list is treated as empty.
func (d *Directory) List(ctx context.Context) []models.Identity {
	raw, ok, err := d.provider.Get(ctx, constants.KeyAccounts)
	if err != nil {
		logger.Warn("Failed to read account list", "error", apperr.StorageRead(constants.KeyAccounts, err))
		return []models.Identity{}
	}
	if !ok || raw == "" {
		return []models.Identity{}
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logger.Warn("Account list is not a JSON array", "error", err)
		return []models.Identity{}
	}
	out := make([]models.Identity, 0, len(items))
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) != nil || s == "" {
			continue
		}
		out = append(out, models.Identity(s))
	}
	return out
}

// SignIn normalizes handle, registers it if unseen and makes it current.
func (d *Directory) SignIn(ctx context.Context, handle string) (models.Identity, error) {
	id := models.NormalizeIdentity(handle)
	if id == "" {
		return "", apperr.Validation("handle", "please enter a username (e.g., your email)")
	}

	list := d.List(ctx)
	known := false
	for _, existing := range list {
		if existing == id {
			known = true
			break
		}
	}
	if !known {
		data, err := json.Marshal(append(list, id))
		if err != nil {
			return "", apperr.StorageWrite(constants.KeyAccounts, err)
		}
		if err := d.provider.Set(ctx, constants.KeyAccounts, string(data)); err != nil {
			return "", apperr.StorageWrite(constants.KeyAccounts, err)
		}
		logger.Info("Registered local account", "identity", id)
	}

	if err := d.provider.Set(ctx, constants.KeyCurrentUser, string(id)); err != nil {
		return "", apperr.StorageWrite(constants.KeyCurrentUser, err)
	}
	return id, nil
}

// SignOut clears the current pointer. The account and its data stay.
func (d *Directory) SignOut(ctx context.Context) error {
	if err := d.provider.Delete(ctx, constants.KeyCurrentUser); err != nil {
		return apperr.StorageWrite(constants.KeyCurrentUser, err)
	}
	return nil
}

// Current returns the signed-in identity, if any.
func (d *Directory) Current(ctx context.Context) (models.Identity, bool, error) {
	raw, ok, err := d.provider.Get(ctx, constants.KeyCurrentUser)
	if err != nil {
		return "", false, apperr.StorageRead(constants.KeyCurrentUser, err)
	}
	if !ok || raw == "" {
		return "", false, nil
	}
	return models.Identity(raw), true, nil
}
