package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Toaster writes transient notifications to a terminal. On a TTY the
// toast line is cleared when its duration elapses; otherwise it is a plain
// line that stays.
type Toaster struct {
	w     io.Writer
	tty   bool
	clock clockwork.Clock

	mu     sync.Mutex
	active int
	last   string
}

// ToastOption configures a Toaster.
type ToastOption func(*Toaster)

// WithTTY enables clearing of expired toasts.
func WithTTY(tty bool) ToastOption {
	return func(t *Toaster) {
		t.tty = tty
	}
}

// WithToastClock sets the clock used to expire toasts.
func WithToastClock(clock clockwork.Clock) ToastOption {
	return func(t *Toaster) {
		t.clock = clock
	}
}

// NewToaster creates a toaster writing to w.
func NewToaster(w io.Writer, opts ...ToastOption) *Toaster {
	t := &Toaster{w: w, clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Warning shows message for d. It never blocks.
func (t *Toaster) Warning(message string, d time.Duration) {
	t.show("⚠", message, d)
}

// Info shows message for d.
func (t *Toaster) Info(message string, d time.Duration) {
	t.show("ℹ", message, d)
}

func (t *Toaster) show(icon, message string, d time.Duration) {
	t.mu.Lock()
	t.active++
	t.last = message
	if t.tty {
		fmt.Fprintf(t.w, "\r\033[K%s %s", icon, message)
	} else {
		fmt.Fprintf(t.w, "%s %s\n", icon, message)
	}
	t.mu.Unlock()

	t.clock.AfterFunc(d, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.active--
		if t.tty && t.active == 0 {
			fmt.Fprint(t.w, "\r\033[K")
		}
	})
}

// Visible reports how many toasts have not expired yet.
func (t *Toaster) Visible() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Last returns the most recent message.
func (t *Toaster) Last() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
