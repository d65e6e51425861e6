package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskrun/tr/internal/config"
	"github.com/taskrun/tr/internal/env"
)

// newInfoCommand creates the "info" subcommand that describes a resolved task.
func newInfoCommand(opts *Options) *cobra.Command {
	var expand bool

	cmd := &cobra.Command{
		Use:   "info [TASK]",
		Short: "Show task details",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(cmd, opts, nil)
			if err != nil {
				return err
			}
			task, err := s.resolveTask(firstArg(args))
			if err != nil {
				return err
			}
			if expand {
				if task, err = task.Expand(s.scope); err != nil {
					return err
				}
			}
			printTask(cmd.OutOrStdout(), task, true)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&expand, "expand", "x", false, "Expand variables in the displayed values")
	return cmd
}

// taskPrinter renders "title  value" rows with a fixed title column.
type taskPrinter struct {
	w     io.Writer
	title *color.Color
}

func (p taskPrinter) val(title string, value any) {
	fmt.Fprintf(p.w, "%s%v\n", p.title.Sprintf("%-24s", title), value)
}

func (p taskPrinter) flag(title string, value bool) {
	if value {
		p.val(title, "Yes")
		return
	}
	p.val(title, "No")
}

func (p taskPrinter) blob(title, text string) {
	lines := strings.Split(text, "\n")
	p.val(title, lines[0])
	for _, line := range lines[1:] {
		p.val("", line)
	}
}

func (p taskPrinter) list(title, indent string, items []string) {
	if len(items) == 0 {
		return
	}
	p.val(title, "")
	for i, item := range items {
		p.blob(fmt.Sprintf("%s[%d]", indent, i), item)
	}
}

func (p taskPrinter) env(title, indent string, m map[string]string) {
	entries := make([]string, 0, len(m))
	for _, k := range env.Vars(m).Keys() {
		entries = append(entries, k+"="+m[k])
	}
	p.list(title, indent, entries)
}

// printTask writes a human-readable description of task. full adds the descriptive and
// visibility fields shown by "info".
func printTask(w io.Writer, task *config.Task, full bool) {
	p := taskPrinter{w: w, title: color.New(color.Bold)}

	p.val("Task name:", task.Name)
	if full {
		p.val("Short description:", task.ShortDesc)
		if task.Description != "" {
			p.blob("Description:", task.Description)
		}
		p.flag("Hidden:", task.Hidden)
		p.flag("Abstract:", task.Abstract)
	}
	p.flag("Use shell:", task.Shell)
	if task.Shell {
		p.val("Shell path:", task.ShellPath)
	}
	p.env("Environment:", "     ", task.Env)
	if task.Cwd != "" {
		p.blob("Working directory:", task.Cwd)
	}

	if c := task.Container; c.Image != "" {
		p.val("Container details:", "")
		if c.Exec {
			p.val("  Execute in:", c.Image)
		} else {
			p.val("  Run image:", c.Image)
			p.flag("  Remove:", c.Remove)
		}
		p.val("  Tool:", c.Tool)
		p.flag("  Sudo:", c.Sudo)
		p.flag("  Interactive:", c.Interactive)
		p.flag("  Allocate tty:", c.TTY)
		p.flag("  Use shell:", c.Shell)
		if c.Shell {
			p.val("  Shell path:", c.ShellPath)
		}
		if c.Flags != "" {
			p.blob("  Run/Exec flags:", c.Flags)
		}
		if c.Cwd != "" {
			p.blob("  Working directory:", c.Cwd)
		}
		p.list("  Volumes:", "       ", c.Volumes)
		p.env("  Environment:", "       ", c.Env)
	}

	switch len(task.Commands) {
	case 0:
		if task.Container.Image == "" {
			fmt.Fprintln(w, "NOTICE: No commands defined for task")
		} else {
			fmt.Fprintln(w, "NOTICE: Will run the image/container default command")
		}
	case 1:
		p.blob("Command:", task.Commands[0])
	default:
		p.flag("Stop on error:", task.StopOnError)
		p.list("Commands:", "     ", task.Commands)
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
