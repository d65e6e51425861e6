package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskrun/tr/internal/config"
)

const listDescWidth = 55

// newListCommand creates the "list" subcommand that prints a table of tasks.
func newListCommand(opts *Options) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSession(cmd, opts, nil)
			if err != nil {
				return err
			}
			listTasks(cmd.OutOrStdout(), s.file, all)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Show hidden and abstract tasks")
	return cmd
}

// listTasks prints one row per task. Tasks that fail to resolve are listed with their error.
func listTasks(w io.Writer, f *config.File, all bool) {
	header := color.New(color.Bold)
	name := color.New(color.FgCyan)
	failed := color.New(color.FgRed)

	fmt.Fprintln(w, header.Sprintf("%-24s%-6s%s", "Name", "Flags", "Description"))
	fmt.Fprintf(w, "%-24s%-6s%s\n", "----", "-----", "-----------")

	resolver := f.Resolver()
	for _, taskName := range f.TaskNames() {
		task, err := resolver.Resolve(taskName)
		if err != nil {
			fmt.Fprintf(w, "%s%s\n", name.Sprintf("%-24s", taskName), failed.Sprintf("<error: %v>", err))
			continue
		}
		if (task.Hidden || task.Abstract) && !all {
			continue
		}
		fmt.Fprintf(w, "%s%-6s%s\n", name.Sprintf("%-24s", taskName), taskFlags(task, f.DefaultTask), truncate(task.ShortDesc, listDescWidth))
	}
}

func taskFlags(task *config.Task, defaultTask string) string {
	switch {
	case task.Abstract:
		return "A"
	case task.Hidden:
		return "H"
	case task.Name == defaultTask:
		return "*"
	}
	return ""
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
