// Package supervisor starts the watch and serve loops as independent
// goroutines and tears the whole system down on the first fatal failure
// from either of them.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitewatch/internal/errors"
)

// Unit is an independently scheduled loop. Run must return promptly once ctx
// is cancelled; a nil return is a clean exit.
type Unit struct {
	Name string
	Run  func(ctx context.Context) error
}

// Failure is the one-shot fatal-error message from a unit to the supervisor.
type Failure struct {
	Origin string
	Err    error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Origin, f.Err)
}

// Unwrap exposes the unit's error for category inspection.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Category returns the classified category of the underlying error.
func (f *Failure) Category() errors.ErrorCategory {
	return errors.CategoryOf(f.Err)
}

// shutdownGrace bounds how long the supervisor waits for units to unwind
// after the first failure. The process is exiting either way.
const shutdownGrace = 5 * time.Second

// Supervisor coordinates a fixed set of units.
type Supervisor struct {
	units []Unit
}

// New creates a supervisor over the given units.
func New(units ...Unit) *Supervisor {
	return &Supervisor{units: units}
}

// Run starts every unit and blocks until either all units exit cleanly or one
// reports a failure. The first failure wins: it cancels the shared context,
// which terminates the remaining units, and is returned to the caller. Later
// failures are discarded without blocking the failing unit.
func (s *Supervisor) Run(ctx context.Context) *Failure {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Capacity one plus non-blocking sends gives first-producer-wins
	// semantics; a second failing unit never deadlocks here.
	failures := make(chan Failure, 1)

	var wg sync.WaitGroup
	for _, unit := range s.units {
		wg.Add(1)
		go func(u Unit) {
			defer wg.Done()
			if err := u.Run(ctx); err != nil {
				select {
				case failures <- Failure{Origin: u.Name, Err: err}:
				default:
				}
			}
		}(unit)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case failure := <-failures:
		slog.Error("unit failed, shutting down", "unit", failure.Origin, "error", failure.Err)
		cancel()
		select {
		case <-done:
		case <-time.After(shutdownGrace):
			slog.Warn("units did not unwind before exit", "grace", shutdownGrace)
		}
		return &failure
	case <-done:
		// All units returned. A failure sent in the same instant still wins.
		select {
		case failure := <-failures:
			return &failure
		default:
			return nil
		}
	}
}
