// Package app wires the record store, the persistence adapter and the
// authentication gate into the operations a host (CLI or HTTP) drives.
//
// An App is not safe for concurrent use. Every method must be called from the
// main loop; hosts reach it through loop.Do.
package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kozaktomas/names-to-faces/internal/auth"
	"github.com/kozaktomas/names-to-faces/internal/persistence"
	"github.com/kozaktomas/names-to-faces/internal/person"
)

// ErrLocked is returned by operations that need an unlocked app.
var ErrLocked = errors.New("app is locked")

// Presenter receives the list to display after every change.
// A nil list means the list is hidden.
type Presenter interface {
	Render(people []person.Person)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func([]person.Person)

// Render calls f.
func (f PresenterFunc) Render(people []person.Person) { f(people) }

// App is the application core.
type App struct {
	adapter   *persistence.Adapter
	gate      *auth.Gate
	presenter Presenter
	logger    *slog.Logger

	store    *person.Store
	unlocked bool
	pending  chan auth.Outcome
	epoch    uint64
}

// New creates a locked app.
func New(adapter *persistence.Adapter, gate *auth.Gate, presenter Presenter, logger *slog.Logger) *App {
	if presenter == nil {
		presenter = PresenterFunc(func([]person.Person) {})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		adapter:   adapter,
		gate:      gate,
		presenter: presenter,
		logger:    logger.With("component", "app"),
		store:     person.NewStore(),
	}
}

// OnAppForeground locks the app and runs the authentication gate. On unlock the
// saved people are loaded and rendered. The returned channel receives the
// outcome once the run settles, or is closed empty if a later foreground or
// background event supersedes it.
//
// The run ignores cancellation of ctx. It settles after the caller may be gone,
// and the load on unlock must see the whole stored list.
func (a *App) OnAppForeground(ctx context.Context, p auth.Prompter) <-chan auth.Outcome {
	ctx = context.WithoutCancel(ctx)
	a.lock()

	result := make(chan auth.Outcome, 1)
	a.pending = result
	a.gate.Begin(ctx, p, func(o auth.Outcome) {
		if a.pending == result {
			a.pending = nil
		}
		if o.Unlocked() {
			a.store = a.adapter.Load(ctx)
			a.unlocked = true
			a.logger.Info("unlocked", "people", a.store.Len())
			a.render()
		}
		result <- o
		close(result)
	})
	return result
}

// OnAppBackground abandons a pending authentication, saves and locks.
func (a *App) OnAppBackground(ctx context.Context) {
	wasUnlocked := a.unlocked
	a.gate.Cancel()
	if wasUnlocked {
		a.adapter.Save(ctx, a.store)
	}
	a.lock()
	a.logger.Debug("backgrounded", "saved", wasUnlocked)
}

// Epoch counts lock events. An unlock seen at the same epoch as the
// OnAppForeground call that started it belongs to that call.
func (a *App) Epoch() uint64 {
	return a.epoch
}

// Unlocked reports whether the last foreground run unlocked the app.
func (a *App) Unlocked() bool {
	return a.unlocked
}

// People returns a copy of the list, or nil while locked.
func (a *App) People() []person.Person {
	if !a.unlocked {
		return nil
	}
	return a.store.All()
}

// Find returns the indexes of people whose name matches query, ignoring case
// and diacritics.
func (a *App) Find(query string) ([]int, error) {
	if !a.unlocked {
		return nil, ErrLocked
	}
	return a.store.Find(query), nil
}

// OnCapture stores a captured image under a new person named "Unknown" and
// appends it to the list. Payloads that are not images add nothing.
func (a *App) OnCapture(ctx context.Context, data []byte) (person.Person, error) {
	if !a.unlocked {
		return person.Person{}, ErrLocked
	}
	p := person.New()
	if err := a.adapter.WriteImage(ctx, data, p.ImageRef); err != nil {
		a.logger.Warn("capture rejected", "error", err)
		return person.Person{}, err
	}
	a.store.Append(p)
	a.adapter.Save(ctx, a.store)
	a.logger.Info("person added", "image", p.ImageRef, "people", a.store.Len())
	a.render()
	return p, nil
}

// OnRename replaces the name of the person at index i with name as given.
func (a *App) OnRename(ctx context.Context, i int, name string) error {
	if !a.unlocked {
		return ErrLocked
	}
	if err := a.store.Update(i, name); err != nil {
		return a.desync("rename", err)
	}
	a.adapter.Save(ctx, a.store)
	a.logger.Info("person renamed", "index", i, "name", name)
	a.render()
	return nil
}

// OnDelete removes the person at index i together with their image.
func (a *App) OnDelete(ctx context.Context, i int) error {
	if !a.unlocked {
		return ErrLocked
	}
	removed, err := a.store.RemoveAt(i)
	if err != nil {
		return a.desync("delete", err)
	}
	a.adapter.Save(ctx, a.store)
	a.adapter.DeleteImage(ctx, removed.ImageRef)
	a.logger.Info("person deleted", "index", i, "people", a.store.Len())
	a.render()
	return nil
}

// Image returns the JPEG for the person at index i, or a placeholder when the
// image is missing.
func (a *App) Image(ctx context.Context, i int) ([]byte, error) {
	if !a.unlocked {
		return nil, ErrLocked
	}
	p, err := a.store.At(i)
	if err != nil {
		return nil, a.desync("image", err)
	}
	return a.adapter.ImageOrPlaceholder(ctx, p.ImageRef), nil
}

// StoredImage returns the stored JPEG for the person at index i and whether
// one exists. Unlike Image it never substitutes a placeholder.
func (a *App) StoredImage(ctx context.Context, i int) ([]byte, bool, error) {
	if !a.unlocked {
		return nil, false, ErrLocked
	}
	p, err := a.store.At(i)
	if err != nil {
		return nil, false, a.desync("stored image", err)
	}
	data, ok := a.adapter.ReadImage(ctx, p.ImageRef)
	return data, ok, nil
}

func (a *App) lock() {
	if a.pending != nil {
		close(a.pending)
		a.pending = nil
	}
	a.epoch++
	wasUnlocked := a.unlocked
	a.unlocked = false
	a.store = person.NewStore()
	if wasUnlocked {
		a.render()
	}
}

func (a *App) render() {
	a.presenter.Render(a.People())
}

// desync logs an index error, which means the host showed a list that no
// longer matches the store.
func (a *App) desync(op string, err error) error {
	a.logger.Error("index out of range", "op", op, "error", err, "people", a.store.Len())
	return err
}
