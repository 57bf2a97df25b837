// Package auth implements the gate that must be passed before the people list is loaded:
// biometric verification first, then a password fallback.
//
// The password is stored as entered, and the first password ever entered is
// accepted and enrolled without confirmation.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/kozaktomas/names-to-faces/internal/metrics"
	"github.com/kozaktomas/names-to-faces/internal/storage"
)

// Prompter is the user-facing side of the gate.
type Prompter interface {
	// Acknowledge shows a blocking message the user must dismiss.
	Acknowledge(ctx context.Context, title, message string)
	// Password asks for the password. enroll is true when no password exists yet
	// and the answer will become the password. An error means the prompt was cancelled.
	Password(ctx context.Context, enroll bool) (string, error)
}

// Poster schedules work on the main loop.
type Poster interface {
	Post(fn func()) bool
}

// Options configures a Gate.
type Options struct {
	Slot   string // secret name, storage.PasswordSlot when empty
	Reason string // shown by the biometric verifier
	Logger *slog.Logger
}

// Gate runs the authentication state machine once per foreground event.
// Begin and the done callbacks run on the main loop; only biometric verification
// runs elsewhere.
type Gate struct {
	biometric  Biometric
	secrets    storage.SecretStore
	poster     Poster
	opts       Options
	logger     *slog.Logger
	generation atomic.Uint64
}

// NewGate creates a gate.
func NewGate(b Biometric, secrets storage.SecretStore, poster Poster, opts Options) *Gate {
	if opts.Slot == "" {
		opts.Slot = storage.PasswordSlot
	}
	if opts.Reason == "" {
		opts.Reason = "Identify yourself!"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		biometric: b,
		secrets:   secrets,
		poster:    poster,
		opts:      opts,
		logger:    logger.With("component", "auth"),
	}
}

// Begin starts a new run and supersedes any run still in flight. done is called
// on the main loop with the terminal outcome, unless the run is superseded or
// cancelled first, in which case it is never called.
func (g *Gate) Begin(ctx context.Context, p Prompter, done func(Outcome)) {
	gen := g.generation.Add(1)
	g.logger.Debug("authentication started", "generation", gen)

	if !g.biometric.Available() {
		p.Acknowledge(ctx, titleUnavailable, messageUnavailable)
		g.finish(gen, Outcome{State: StateBiometryUnavailable, Err: ErrBiometryUnavailable}, done)
		return
	}

	g.transition(gen, StateBiometricPrompt)
	go func() {
		err := g.biometric.Verify(ctx, g.opts.Reason)
		posted := g.poster.Post(func() {
			if !g.current(gen) {
				g.logger.Debug("dropping stale biometric result", "generation", gen)
				return
			}
			if err == nil {
				g.finish(gen, Outcome{State: StateUnlocked}, done)
				return
			}
			g.logger.Info("biometric verification failed", "error", err)
			g.transition(gen, StateBiometricFailed)
			p.Acknowledge(ctx, titleFailed, messageFailed)
			g.finish(gen, g.passwordPrompt(ctx, gen, p), done)
		})
		if !posted {
			g.logger.Debug("main loop stopped before biometric result", "generation", gen)
		}
	}()
}

// Cancel invalidates the run in flight, if any.
func (g *Gate) Cancel() {
	g.generation.Add(1)
}

func (g *Gate) current(gen uint64) bool {
	return g.generation.Load() == gen
}

func (g *Gate) passwordPrompt(ctx context.Context, gen uint64, p Prompter) Outcome {
	g.transition(gen, StatePasswordPrompt)

	stored, err := g.secrets.GetSecret(ctx, g.opts.Slot)
	enroll := errors.Is(err, storage.ErrNotFound)
	if err != nil && !enroll {
		g.logger.Error("reading stored password failed", "error", err)
		return Outcome{State: StatePasswordRejected, Err: fmt.Errorf("%w: %v", ErrRejected, err)}
	}

	input, err := p.Password(ctx, enroll)
	if err != nil {
		return Outcome{State: StatePasswordRejected, Err: fmt.Errorf("%w: %v", ErrRejected, err)}
	}

	if enroll {
		if err := g.secrets.SetSecret(ctx, g.opts.Slot, input); err != nil {
			metrics.PersistenceErrors.WithLabelValues(metrics.OpSetSecret).Inc()
			g.logger.Warn("storing new password failed", "error", err)
		}
		return Outcome{State: StateUnlocked, Enrolled: true}
	}

	if subtle.ConstantTimeCompare([]byte(input), []byte(stored)) == 1 {
		return Outcome{State: StateUnlocked}
	}

	p.Acknowledge(ctx, titleRejected, messageRejected)
	return Outcome{State: StatePasswordRejected, Err: ErrRejected}
}

func (g *Gate) transition(gen uint64, s State) {
	g.logger.Debug("authentication state", "generation", gen, "state", s.String())
}

func (g *Gate) finish(gen uint64, o Outcome, done func(Outcome)) {
	if !g.current(gen) {
		g.logger.Debug("dropping superseded outcome", "generation", gen, "state", o.State.String())
		return
	}
	metrics.AuthOutcomes.WithLabelValues(o.State.String()).Inc()
	g.logger.Info("authentication finished", "state", o.State.String(), "enrolled", o.Enrolled)
	done(o)
}
