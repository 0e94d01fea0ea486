package app

import (
	"fmt"
	"io"
	"sync"

	"github.com/aussiebroadwan/stockroom/internal/console/session"
	"github.com/aussiebroadwan/stockroom/internal/console/view"
)

// Navigator tracks the command the operator is running. Being sent to the
// login view prints a prompt to sign in again, once.
type Navigator struct {
	mu      sync.Mutex
	out     io.Writer
	styles  view.Styles
	current string
}

func NewNavigator(out io.Writer, styles view.Styles) *Navigator {
	return &Navigator{out: out, styles: styles}
}

func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// SetCurrent records the view the operator opened.
func (n *Navigator) SetCurrent(v string) {
	n.mu.Lock()
	n.current = v
	n.mu.Unlock()
}

// Navigate switches to v. Arriving at the login view prompts the operator.
func (n *Navigator) Navigate(v string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == v {
		return
	}
	n.current = v
	if v == session.ViewLogin {
		fmt.Fprint(n.out, view.Banner(n.styles.Warn, "Session expired. Run `stockroom login` to sign in again."))
	}
}
