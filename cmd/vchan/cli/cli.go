// Package cli is a minimal subcommand dispatcher.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// ErrUsage is returned when the arguments do not fit a command.
var ErrUsage = errors.New("usage error")

// PositionalArgs validates the arguments of a command.
type PositionalArgs func(args []string) error

// Command is a node of the command tree. Usage starts with the command name,
// optionally followed by an argument synopsis.
type Command struct {
	Usage string
	Short string
	Long  string
	Args  PositionalArgs
	Run   func(ctx context.Context, args []string)

	commands []*Command
	parent   *Command
}

// Name is the first word of Usage.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// AddCommand adds sub as a subcommand of c.
func (c *Command) AddCommand(sub *Command) {
	sub.parent = c
	c.commands = append(c.commands, sub)
}

// Find returns the subcommand named name.
func (c *Command) Find(name string) (*Command, bool) {
	for _, sub := range c.commands {
		if sub.Name() == name {
			return sub, true
		}
	}
	return nil, false
}

func (c *Command) path() string {
	if c.parent == nil {
		return c.Name()
	}
	return c.parent.path() + " " + c.Name()
}

// PrintHelp writes the help of c to w.
func (c *Command) PrintHelp(w io.Writer) {
	if c.Long != "" {
		fmt.Fprintln(w, c.Long)
	} else if c.Short != "" {
		fmt.Fprintln(w, c.Short)
	}
	fmt.Fprintln(w)
	usage := c.Usage
	if c.parent != nil {
		usage = c.parent.path() + " " + c.Usage
	}
	if len(c.commands) > 0 {
		fmt.Fprintf(w, "Usage:\n  %s <command> [args...]\n\nCommands:\n", usage)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, sub := range c.commands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name(), sub.Short)
		}
		tw.Flush()
		return
	}
	fmt.Fprintf(w, "Usage:\n  %s\n", usage)
}

// Execute resolves args against the command tree under root and runs the
// matching command. Help is printed for -h/--help and for a command that
// has subcommands but no Run.
func Execute(ctx context.Context, root *Command, args []string) error {
	cmd := root
	for len(args) > 0 {
		sub, ok := cmd.Find(args[0])
		if !ok {
			break
		}
		cmd = sub
		args = args[1:]
	}
	if len(args) > 0 && (args[0] == "-h" || args[0] == "--help") {
		cmd.PrintHelp(os.Stdout)
		return nil
	}
	if cmd.Run == nil {
		if len(args) > 0 {
			cmd.PrintHelp(os.Stderr)
			return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
		}
		cmd.PrintHelp(os.Stdout)
		return nil
	}
	if cmd.Args != nil {
		if err := cmd.Args(args); err != nil {
			cmd.PrintHelp(os.Stderr)
			return err
		}
	}
	cmd.Run(ctx, args)
	return nil
}

// MinArgs requires at least n arguments.
func MinArgs(n int) PositionalArgs {
	return func(args []string) error {
		if len(args) < n {
			return fmt.Errorf("%w: expected at least %d arguments, got %d", ErrUsage, n, len(args))
		}
		return nil
	}
}

// MaxArgs accepts at most n arguments.
func MaxArgs(n int) PositionalArgs {
	return func(args []string) error {
		if len(args) > n {
			return fmt.Errorf("%w: expected at most %d arguments, got %d", ErrUsage, n, len(args))
		}
		return nil
	}
}

// ExactArgs requires exactly n arguments.
func ExactArgs(n int) PositionalArgs {
	return func(args []string) error {
		if len(args) != n {
			return fmt.Errorf("%w: expected %d arguments, got %d", ErrUsage, n, len(args))
		}
		return nil
	}
}
