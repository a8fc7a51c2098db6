// Package snake holds the interactive prompts used when a command is run
// without naming its target.
package snake

import (
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"tableflip.dev/apphub/pkg/apps"
)

// ErrNotInteractive is returned when a prompt is needed but stdin is not a
// terminal.
var ErrNotInteractive = errors.New("no application named and stdin is not a terminal")

// CanPrompt reports whether stdin and stdout are terminals.
func CanPrompt() bool {
	return isTerminal(os.Stdin.Fd()) && isTerminal(os.Stdout.Fd())
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// PickApp asks the user to choose one of records.
func PickApp(cmd *cobra.Command, label string, records []apps.Record) (apps.Record, error) {
	if len(records) == 0 {
		return apps.Record{}, apps.ErrNotFound
	}
	if !CanPrompt() {
		return apps.Record{}, ErrNotInteractive
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   "➜  {{ if .Pinned }}{{ \"*\" | yellow }}{{ else }} {{ end }} {{ .Name | bold }} {{ .Category | cyan }}",
		Inactive: "   {{ if .Pinned }}{{ \"*\" | yellow }}{{ else }} {{ end }} {{ .Name }} {{ .Category | faint }}",
		Selected: "{{ .Name | bold }}",
		Details: `
--------- Details ----------
{{ .Path }}
`,
	}

	searcher := func(input string, index int) bool {
		name := strings.Replace(strings.ToLower(records[index].Name), " ", "", -1)
		input = strings.Replace(strings.ToLower(input), " ", "", -1)
		return strings.Contains(name, input)
	}

	prompt := promptui.Select{
		HideHelp:          true,
		Label:             label,
		Items:             records,
		Templates:         templates,
		Size:              10,
		Searcher:          searcher,
		StartInSearchMode: true,
		Stdin:             io.NopCloser(cmd.InOrStdin()),
		Stdout:            nopCloser{cmd.OutOrStdout()},
	}

	i, _, err := prompt.Run()
	if err != nil {
		return apps.Record{}, err
	}
	return records[i], nil
}

// PickString asks the user to choose one of items, or type a new value when
// allowNew is set.
func PickString(cmd *cobra.Command, label string, items []string, allowNew bool) (string, error) {
	if !CanPrompt() {
		return "", ErrNotInteractive
	}
	if allowNew {
		prompt := promptui.SelectWithAdd{
			Label:    label,
			Items:    items,
			AddLabel: "Other",
			HideHelp: true,
		}
		_, result, err := prompt.Run()
		return result, err
	}
	prompt := promptui.Select{
		Label:    label,
		Items:    items,
		HideHelp: true,
		Stdin:    io.NopCloser(cmd.InOrStdin()),
		Stdout:   nopCloser{cmd.OutOrStdout()},
	}
	_, result, err := prompt.Run()
	return result, err
}

// ParseBool is strconv.ParseBool with the addition of yes/no and on/off.
func ParseBool(str string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "1", "t", "true", "y", "yes", "on", "enable", "enabled":
		return true, nil
	case "0", "f", "false", "n", "no", "off", "disable", "disabled":
		return false, nil
	}
	return false, &strconv.NumError{Func: "ParseBool", Num: str, Err: strconv.ErrSyntax}
}
