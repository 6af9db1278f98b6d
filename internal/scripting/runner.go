// Package scripting runs note scripts in an isolated JavaScript runtime.
// Scripts see only the objects bound for them: no modules, no filesystem,
// no network.
package scripting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dop251/goja"

	"github.com/starford/laguz/internal/models"
)

// ErrNotExecutable is returned when a note is not a backend JavaScript note.
var ErrNotExecutable = errors.New("note is not an executable backend script")

// ErrTimeout is returned when a script exceeds the runner's time budget.
var ErrTimeout = errors.New("script timed out")

// DefaultTimeout bounds a script run when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Runner executes scripts, one fresh runtime per call.
type Runner struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewRunner creates a runner. A non-positive timeout selects DefaultTimeout.
func NewRunner(timeout time.Duration, logger *slog.Logger) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{timeout: timeout, logger: logger}
}

// ExecuteNote runs the body of a backend script note and returns its
// exported result. The script receives `api.originEntity`, a read-only view
// of origin, and `api.log`.
func (r *Runner) ExecuteNote(ctx context.Context, script, origin *models.Note) (any, error) {
	if !script.IsBackendScript() {
		return nil, fmt.Errorf("scripting: %s: %w", script.ID, ErrNotExecutable)
	}

	v, err := r.run(ctx, script.Content, func(vm *goja.Runtime) error {
		api := vm.NewObject()
		view, err := readOnlyView(vm, origin)
		if err != nil {
			return err
		}
		if view != nil {
			if err := api.Set("originEntity", view); err != nil {
				return err
			}
		}
		if err := api.Set("log", func(c goja.FunctionCall) goja.Value {
			r.logger.Info("scripting: log",
				slog.String("script_note_id", script.ID),
				slog.String("message", strArg(c, 0)))
			return goja.Undefined()
		}); err != nil {
			return err
		}
		return vm.Set("api", api)
	})
	if err != nil {
		return nil, fmt.Errorf("scripting: execute %s: %w", script.ID, err)
	}
	return v.Export(), nil
}

// Evaluate runs src with `note` bound to a mutable view of n. Mutations are
// applied to n in place; persisting them is the caller's job.
func (r *Runner) Evaluate(ctx context.Context, src string, n *models.Note) error {
	_, err := r.run(ctx, src, func(vm *goja.Runtime) error {
		obj, err := noteObject(vm, n)
		if err != nil {
			return err
		}
		return vm.Set("note", obj)
	})
	if err != nil {
		return fmt.Errorf("scripting: evaluate on %s: %w", n.ID, err)
	}
	return nil
}

// run wraps src in a function so a top-level `return` yields the result, and
// interrupts the runtime when ctx is done or the timeout elapses.
func (r *Runner) run(ctx context.Context, src string, bind func(*goja.Runtime) error) (goja.Value, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	if err := bind(vm); err != nil {
		return nil, fmt.Errorf("bind: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	v, err := vm.RunString("(function() {\n" + src + "\n})()")
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrTimeout
			}
			return nil, ctx.Err()
		}
		return nil, err
	}
	return v, nil
}
