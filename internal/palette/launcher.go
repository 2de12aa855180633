package palette

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

type launcherKind int

const (
	kindRofi launcherKind = iota
	kindFuzzel
	kindWofi
	kindDmenu
)

// runFunc executes the launcher with the menu on stdin and returns stdout.
type runFunc func(command string, args []string, stdin string) (string, error)

type launcher struct {
	command string
	kind    launcherKind
	run     runFunc
}

func newLauncher(command string, kind launcherKind) *launcher {
	return &launcher{command: command, kind: kind, run: execRun}
}

func execRun(command string, args []string, stdin string) (string, error) {
	cmd := exec.Command(command, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil && !isCancelExit(err) {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return string(out), fmt.Errorf("%s failed: %s", command, msg)
		}
		return string(out), fmt.Errorf("%s failed: %w", command, err)
	}
	return string(out), nil
}

// indexOutput reports whether the launcher prints the chosen row index rather
// than its text.
func (l *launcher) indexOutput() bool {
	return l.kind == kindRofi || l.kind == kindFuzzel
}

func (l *launcher) Show(prompt string, items []Item) (Item, error) {
	if len(items) == 0 {
		return Item{}, fmt.Errorf("palette: no items to show")
	}

	rows := make([]Item, len(items))
	copy(rows, items)
	if !l.indexOutput() {
		disambiguate(rows)
	}

	out, err := l.run(l.command, l.args(prompt, rows), l.input(rows))
	if err != nil {
		return Item{}, err
	}
	selection := strings.TrimSpace(out)
	if selection == "" {
		return Item{}, ErrCancelled
	}

	item, err := l.parseSelection(selection, rows)
	if err != nil {
		return Item{}, err
	}
	if item.IsHeader {
		return Item{}, ErrCancelled
	}
	return item, nil
}

func (l *launcher) args(prompt string, items []Item) []string {
	var args []string
	switch l.kind {
	case kindRofi:
		args = []string{"-dmenu", "-i", "-markup-rows", "-no-custom", "-format", "i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		var active []string
		selected := -1
		for i, item := range items {
			if item.IsActive && !item.IsHeader {
				active = append(active, strconv.Itoa(i))
				if selected < 0 {
					selected = i
				}
			}
		}
		if len(active) > 0 {
			args = append(args, "-a", strings.Join(active, ","))
		}
		if selected >= 0 {
			args = append(args, "-selected-row", strconv.Itoa(selected))
		}

	case kindFuzzel:
		args = []string{"--dmenu", "--index"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}

	case kindWofi:
		args = []string{"--dmenu"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}

	case kindDmenu:
		args = []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
	}
	return args
}

func (l *launcher) input(items []Item) string {
	lines := make([]string, len(items))
	for i, item := range items {
		label := sanitizeLabel(item.Label)
		if l.kind != kindRofi {
			lines[i] = label
			continue
		}
		// -markup-rows is on, so user text must be escaped.
		label = html.EscapeString(label)
		if item.IsHeader {
			lines[i] = "<b>" + label + "</b>\x00nonselectable\x1ftrue"
		} else {
			lines[i] = label
		}
	}
	return strings.Join(lines, "\n")
}

func (l *launcher) parseSelection(selection string, items []Item) (Item, error) {
	if l.indexOutput() {
		if idx, err := strconv.Atoi(selection); err == nil {
			if idx < 0 || idx >= len(items) {
				return Item{}, fmt.Errorf("palette: index %d out of range", idx)
			}
			return items[idx], nil
		}
	}
	for _, item := range items {
		if sanitizeLabel(item.Label) == selection {
			return item, nil
		}
	}
	return Item{}, fmt.Errorf("palette: unknown selection %q", selection)
}

// disambiguate suffixes repeated labels for launchers that answer with text.
func disambiguate(items []Item) {
	seen := make(map[string]int)
	for i := range items {
		key := sanitizeLabel(items[i].Label)
		if key == "" {
			continue
		}
		if count := seen[key]; count > 0 {
			items[i].Label = fmt.Sprintf("%s (%d)", key, count+1)
		}
		seen[key]++
	}
}

func sanitizeLabel(label string) string {
	label = strings.ReplaceAll(label, "\x00", " ")
	label = strings.ReplaceAll(label, "\x1f", " ")
	label = strings.ReplaceAll(label, "\r", " ")
	label = strings.ReplaceAll(label, "\n", " ")
	return strings.TrimSpace(label)
}

func isCancelExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	// 1 is "no selection" for every supported launcher; 130 is Ctrl+C.
	switch exitErr.ExitCode() {
	case 1, 130:
		return true
	default:
		return false
	}
}
