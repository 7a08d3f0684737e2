package loop

import (
	"context"
	"fmt"
	"time"
)

type Next struct {
	// if not nil, breaks with error
	err error

	// if quit == true and err == nil, breaks without error
	quit bool

	// otherwise, continue loop with interval.
	interval time.Duration
}

func (n Next) String() string {
	if n.err != nil {
		return fmt.Sprintf("[break] with error: %v", n.err)
	}
	if n.quit {
		return "[break] without error"
	}

	return fmt.Sprintf("[continue] interval: %s", n.interval)
}

// continue loop.
//
// args:
//
// - interval: sleep before starting next task.
func Continue(interval time.Duration) Next {
	return Next{interval: interval}
}

// break loop.
//
// args:
//
// - err: If you break loop with error, set non nil value.
func Break(err error) Next {
	return Next{quit: true, err: err}
}

// Task is one step of a loop.
//
// It receives the context and the value from the previous step, and returns
// the value for the next step with Continue(interval) or Break(err).
type Task[T any] func(context.Context, T) (T, Next)

// Start task in loop.
//
// The task is called with `init` at the first time. While it returns
// Continue(interval), it is called again with its own last return value
// after the interval has passed (interval can be 0).
//
// Example, counting 1 to 10:
//
//	Start(ctx, 1, func(_ context.Context, value int) (int, Next) {
//		value += 1
//		if 10 <= value {
//			return value, Break(nil)
//		}
//		return value, Continue(0)
//	})
//
// Args
//
// - ctx : context. When this context gets Done, loop will break with ctx.Err().
//
// - init : your task will be called as task(ctx, init) at the first time.
//
// - task : task receiving (context, last value), then returning (new value, Continue() or Break()).
//
// Returns
//
// - T: the T the task returned at last.
// This value is always returned whether or not it returns non-nil error together.
//
// - error: the error the task broke with, or ctx.Err() when the context is done.
func Start[T any](ctx context.Context, init T, task Task[T]) (T, error) {
	value := init

	timer := time.NewTimer(0)
	defer func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}()
	if !timer.Stop() {
		<-timer.C
	}

	for {
		var next Next
		value, next = task(ctx, value)
		if next.quit || next.err != nil {
			return value, next.err
		}

		timer.Reset(next.interval)
		select {
		case <-ctx.Done():
			return value, ctx.Err()
		case <-timer.C:
		}
	}
}
