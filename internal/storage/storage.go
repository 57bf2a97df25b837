// Package storage defines the capability-scoped persistence services used by the
// application: a key-value slot store, a secure secret store and an image file store.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a slot, secret or image does not exist.
var ErrNotFound = errors.New("not found")

// Well-known slot names.
const (
	PeopleSlot   = "people"
	PasswordSlot = "Password"
)

// SlotStore is a key-value persistence service addressed by slot name.
type SlotStore interface {
	// Get returns the data stored in the slot, or ErrNotFound.
	Get(ctx context.Context, slot string) ([]byte, error)
	// Put replaces the data stored in the slot.
	Put(ctx context.Context, slot string, data []byte) error
}

// SecretStore holds secrets in an OS-protected location.
type SecretStore interface {
	// GetSecret returns the secret stored under name, or ErrNotFound.
	GetSecret(ctx context.Context, name string) (string, error)
	// SetSecret stores the secret under name.
	SetSecret(ctx context.Context, name, value string) error
	// DeleteSecret removes the secret. Deleting a missing secret is not an error.
	DeleteSecret(ctx context.Context, name string) error
}

// ImageStore stores one image blob per image reference.
type ImageStore interface {
	WriteImage(ctx context.Context, ref string, data []byte) error
	// ReadImage returns the image data, or ErrNotFound.
	ReadImage(ctx context.Context, ref string) ([]byte, error)
	// DeleteImage removes the image. Deleting a missing image is not an error.
	DeleteImage(ctx context.Context, ref string) error
}

// Backend bundles the slot and secret stores of one storage backend.
type Backend interface {
	SlotStore
	SecretStore
	Close() error
}
