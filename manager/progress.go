package manager

import "context"

// ProgressFunc receives a progress checkpoint and reports whether the
// operation should continue. Returning false requests cancellation; the
// operation stops at the checkpoint, never mid-copy.
type ProgressFunc func(message string, percent int) bool

// report is a cancellation checkpoint. The operation is considered
// cancelled when the context is done or the callback declines to continue.
func report(ctx context.Context, fn ProgressFunc, message string, percent int) error {
	if ctx.Err() != nil {
		return ErrCancelled
	}
	if fn != nil && !fn(message, percent) {
		return ErrCancelled
	}
	return nil
}

// notify reports a checkpoint whose effects are already committed. The
// continue flag is ignored; the callback is only informed.
func notify(fn ProgressFunc, message string, percent int) {
	if fn != nil {
		fn(message, percent)
	}
}
