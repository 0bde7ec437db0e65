package repl

import (
	"sort"
	"strings"
)

// builtins are handled by the loop itself.
var builtins = []string{"exit", "quit", "history"}

// Completer knows the command names of the shell.
type Completer struct {
	commands []string
}

// NewCompleter creates a completer for commands plus the loop built-ins.
// Entries may be multi-word ("session status").
func NewCompleter(commands []string) *Completer {
	all := append(append([]string(nil), commands...), builtins...)
	sort.Strings(all)
	return &Completer{commands: all}
}

// Complete returns the commands starting with prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}

// Known reports whether name is a top-level command.
func (c *Completer) Known(name string) bool {
	for _, cmd := range c.commands {
		if cmd == name || strings.HasPrefix(cmd, name+" ") {
			return true
		}
	}
	return false
}

// Suggest returns top-level commands sharing the first letter of name.
func (c *Completer) Suggest(name string) []string {
	if name == "" {
		return nil
	}
	var out []string
	for _, cmd := range c.Complete(name[:1]) {
		if !strings.Contains(cmd, " ") {
			out = append(out, cmd)
		}
	}
	return out
}
