// Package persistence saves and loads the people list and their face images.
//
// Every operation is best effort: failures are logged and counted, and the
// caller keeps its in-memory state. Loading never fails; it degrades to an
// empty list.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"

	"github.com/kozaktomas/names-to-faces/internal/imaging"
	"github.com/kozaktomas/names-to-faces/internal/metrics"
	"github.com/kozaktomas/names-to-faces/internal/person"
	"github.com/kozaktomas/names-to-faces/internal/storage"
)

var (
	// ErrDecode marks a persisted people slot that could not be parsed.
	ErrDecode = errors.New("malformed people data")
	// ErrInvalidImage is returned by WriteImage for payloads that are not images.
	ErrInvalidImage = errors.New("invalid image")
)

// Options configures an Adapter.
type Options struct {
	Slot            string          // slot name, storage.PeopleSlot when empty
	Image           imaging.Options // stored image policy
	PlaceholderSize int
	Logger          *slog.Logger
}

// Adapter moves the people list between memory and the storage services.
type Adapter struct {
	slots  storage.SlotStore
	images storage.ImageStore
	opts   Options
	logger *slog.Logger
}

// New creates an adapter over the given slot and image stores.
func New(slots storage.SlotStore, images storage.ImageStore, opts Options) *Adapter {
	if opts.Slot == "" {
		opts.Slot = storage.PeopleSlot
	}
	if opts.Image.Quality == 0 {
		opts.Image.Quality = imaging.DefaultQuality
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		slots:  slots,
		images: images,
		opts:   opts,
		logger: logger.With("component", "persistence"),
	}
}

// Save writes the whole store to the people slot.
func (a *Adapter) Save(ctx context.Context, store *person.Store) {
	data, err := json.Marshal(store.All())
	if err != nil {
		a.fail(metrics.OpSave, "encode people", err)
		return
	}
	if err := a.slots.Put(ctx, a.opts.Slot, data); err != nil {
		a.fail(metrics.OpSave, "write people slot", err)
		return
	}
	metrics.People.Set(float64(store.Len()))
	a.logger.Debug("saved people", "count", store.Len())
}

// Load reads the people slot. A missing, unreadable or malformed slot yields an empty store.
func (a *Adapter) Load(ctx context.Context) *person.Store {
	data, err := a.slots.Get(ctx, a.opts.Slot)
	if errors.Is(err, storage.ErrNotFound) {
		a.logger.Debug("no saved people")
		return person.NewStore()
	}
	if err != nil {
		a.fail(metrics.OpLoad, "read people slot", err)
		return person.NewStore()
	}

	people, err := decodePeople(data)
	if err != nil {
		a.fail(metrics.OpLoad, "decode people slot", err)
		return person.NewStore()
	}

	metrics.People.Set(float64(len(people)))
	a.logger.Debug("loaded people", "count", len(people))
	return person.NewStore(people...)
}

// decodePeople parses a people slot. Unknown fields are ignored.
func decodePeople(data []byte) ([]person.Person, error) {
	var people []person.Person
	if err := json.Unmarshal(data, &people); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return people, nil
}

// WriteImage stores data as the JPEG image for ref. Only undecodable payloads
// are reported; storage failures are logged.
func (a *Adapter) WriteImage(ctx context.Context, data []byte, ref string) error {
	encoded, err := imaging.EncodeJPEG(data, a.opts.Image)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if err := a.images.WriteImage(ctx, ref, encoded); err != nil {
		a.fail(metrics.OpWriteImage, "write image", err, "ref", ref)
	}
	return nil
}

// ReadImage returns the stored image for ref, or false when it is missing or unreadable.
func (a *Adapter) ReadImage(ctx context.Context, ref string) ([]byte, bool) {
	data, err := a.images.ReadImage(ctx, ref)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		a.fail(metrics.OpReadImage, "read image", err, "ref", ref)
		return nil, false
	}
	return data, true
}

// ImageOrPlaceholder returns the stored image for ref or a generated placeholder.
func (a *Adapter) ImageOrPlaceholder(ctx context.Context, ref string) []byte {
	if data, ok := a.ReadImage(ctx, ref); ok {
		return data
	}
	return imaging.Placeholder(a.opts.PlaceholderSize)
}

// DeleteImage removes the image for ref.
func (a *Adapter) DeleteImage(ctx context.Context, ref string) {
	if err := a.images.DeleteImage(ctx, ref); err != nil {
		a.fail(metrics.OpDeleteImage, "delete image", err, "ref", ref)
	}
}

func (a *Adapter) fail(op, msg string, err error, args ...any) {
	metrics.PersistenceErrors.WithLabelValues(op).Inc()
	a.logger.Warn(msg, append([]any{"error", err}, args...)...)
}
