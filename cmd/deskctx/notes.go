package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/1broseidon/deskctx/internal/store"
)

// desktopFlags selects a desktop: an explicit space id, or the one a display
// is showing.
type desktopFlags struct {
	desktop uint64
	display int
}

func (d *desktopFlags) register(cmd *cobra.Command) {
	cmd.Flags().Uint64Var(&d.desktop, "desktop", 0, "space id (default: current desktop of --display)")
	cmd.Flags().IntVar(&d.display, "display", 0, "display index used when --desktop is not set")
}

func newTodosCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todos",
		Short: "Show or edit a desktop's todo list",
	}
	cmd.AddCommand(newTodosListCmd(g), newTodosAddCmd(g), newTodosDoneCmd(g), newTodosRemoveCmd(g))
	return cmd
}

func newTodosListCmd(g *globalFlags) *cobra.Command {
	var sel desktopFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := g.client()
			desktop, err := resolveDesktop(client, sel.desktop, sel.display)
			if err != nil {
				return err
			}
			todos, err := client.Todos(desktop)
			if err != nil {
				return err
			}
			return emit(cmd, g, todos, func(w io.Writer) {
				if len(todos) == 0 {
					fmt.Fprintf(w, "no todos on space %d\n", desktop)
					return
				}
				for i, todo := range todos {
					fmt.Fprintf(w, "%2d %s %s\n", i+1, check(todo.Done), todo.Text)
				}
			})
		},
	}
	sel.register(cmd)
	return cmd
}

func newTodosAddCmd(g *globalFlags) *cobra.Command {
	var sel desktopFlags
	cmd := &cobra.Command{
		Use:   "add <text>...",
		Short: "Append a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return usageError{"todo text is empty"}
			}
			client := g.client()
			desktop, err := resolveDesktop(client, sel.desktop, sel.display)
			if err != nil {
				return err
			}
			todos, err := client.Todos(desktop)
			if err != nil {
				return err
			}
			item := store.TodoItem{ID: uuid.NewString(), Text: text}
			if err := client.SaveTodos(desktop, append(todos, item)); err != nil {
				return err
			}
			return emit(cmd, g, item, func(w io.Writer) {
				fmt.Fprintf(w, "added %d: %s\n", len(todos)+1, text)
			})
		},
	}
	sel.register(cmd)
	return cmd
}

// todoIndex resolves a 1-based list number or a todo id.
func todoIndex(todos []store.TodoItem, ref string) (int, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(todos) {
			return 0, usageError{fmt.Sprintf("no todo number %d (have %d)", n, len(todos))}
		}
		return n - 1, nil
	}
	for i, todo := range todos {
		if todo.ID == ref {
			return i, nil
		}
	}
	return 0, usageError{fmt.Sprintf("no todo with id %q", ref)}
}

func newTodosDoneCmd(g *globalFlags) *cobra.Command {
	var sel desktopFlags
	cmd := &cobra.Command{
		Use:   "done <number|id>",
		Short: "Mark a todo done and record it as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := g.client()
			desktop, err := resolveDesktop(client, sel.desktop, sel.display)
			if err != nil {
				return err
			}
			todos, err := client.Todos(desktop)
			if err != nil {
				return err
			}
			idx, err := todoIndex(todos, args[0])
			if err != nil {
				return err
			}
			if todos[idx].Done {
				fmt.Fprintln(cmd.OutOrStdout(), "already done")
				return nil
			}
			todos[idx].Done = true
			if err := client.SaveTodos(desktop, todos); err != nil {
				return err
			}
			item, err := client.AddCompleted(todos[idx].Text, desktop)
			if err != nil {
				return err
			}
			return emit(cmd, g, item, func(w io.Writer) {
				fmt.Fprintf(w, "done: %s\n", item.Text)
			})
		},
	}
	sel.register(cmd)
	return cmd
}

func newTodosRemoveCmd(g *globalFlags) *cobra.Command {
	var sel desktopFlags
	cmd := &cobra.Command{
		Use:     "remove <number|id>",
		Aliases: []string{"rm"},
		Short:   "Remove a todo without completing it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := g.client()
			desktop, err := resolveDesktop(client, sel.desktop, sel.display)
			if err != nil {
				return err
			}
			todos, err := client.Todos(desktop)
			if err != nil {
				return err
			}
			idx, err := todoIndex(todos, args[0])
			if err != nil {
				return err
			}
			removed := todos[idx]
			todos = append(todos[:idx], todos[idx+1:]...)
			if err := client.SaveTodos(desktop, todos); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed: %s\n", removed.Text)
			return nil
		},
	}
	sel.register(cmd)
	return cmd
}

func newTitleCmd(g *globalFlags) *cobra.Command {
	var sel desktopFlags
	var clear bool

	cmd := &cobra.Command{
		Use:   "title [text]...",
		Short: "Show or set a desktop's title",
		Long: `Without arguments, print the title. With arguments, set it. --clear
removes the title.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := g.client()
			desktop, err := resolveDesktop(client, sel.desktop, sel.display)
			if err != nil {
				return err
			}
			if clear || len(args) > 0 {
				title := strings.TrimSpace(strings.Join(args, " "))
				if clear {
					title = ""
				}
				return client.SaveTitle(desktop, title)
			}
			title, err := client.Title(desktop)
			if err != nil {
				return err
			}
			return emit(cmd, g, map[string]any{"desktop": desktop, "title": title}, func(w io.Writer) {
				fmt.Fprintln(w, title)
			})
		},
	}
	sel.register(cmd)
	cmd.Flags().BoolVar(&clear, "clear", false, "remove the title")
	return cmd
}

func newSessionCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Archive, list and restore desktop contexts",
	}

	start := &cobra.Command{
		Use:   "new",
		Short: "Archive every title and todo list and start with a clean slate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.client().StartSession(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "new session started")
			return nil
		},
	}

	history := &cobra.Command{
		Use:   "history",
		Short: "Show archived contexts per desktop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hist, err := g.client().History()
			if err != nil {
				return err
			}
			return emit(cmd, g, hist, func(w io.Writer) {
				printHistory(w, hist)
			})
		},
	}

	restore := &cobra.Command{
		Use:   "restore <space-id> <index>",
		Short: "Restore an archived context onto a desktop",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			desktop, err := parseSpaceID(args[0])
			if err != nil {
				return err
			}
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return usageError{fmt.Sprintf("invalid index %q", args[1])}
			}
			ok, err := g.client().RestoreContext(desktop, index)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no history entry %d for space %d", index, desktop)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored entry %d onto space %d\n", index, desktop)
			return nil
		},
	}

	cmd.AddCommand(start, history, restore)
	return cmd
}

func printHistory(w io.Writer, hist map[uint64][]store.SavedContext) {
	if len(hist) == 0 {
		fmt.Fprintln(w, "no history")
		return
	}
	ids := make([]uint64, 0, len(hist))
	for id := range hist {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		fmt.Fprintf(w, "space %d\n", id)
		for i, ctx := range hist[id] {
			title := ctx.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Fprintf(w, "  %d  %s  %s  %d todos\n", i, ctx.SavedAt, title, len(ctx.Todos))
		}
	}
}

func newCompletedCmd(g *globalFlags) *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "completed",
		Short: "List completed todos across desktops",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := g.client()
			if clear {
				if err := client.ClearCompleted(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "completed list cleared")
				return nil
			}
			items, err := client.Completed()
			if err != nil {
				return err
			}
			return emit(cmd, g, items, func(w io.Writer) {
				if len(items) == 0 {
					fmt.Fprintln(w, "nothing completed yet")
					return
				}
				for _, item := range items {
					fmt.Fprintf(w, "%s  space %-4d %s\n", item.CompletedAt, item.DesktopID, item.Text)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "clear the completed list")
	return cmd
}
