package log

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🖥️ Mode selects how user facing messages are written
type Mode string

const (
	// ModeConsole prints coloured lines for a human at a terminal.
	ModeConsole Mode = "console"
	// ModeActions prints GitHub Actions workflow commands.
	ModeActions Mode = "actions"
	// ModeAuto picks ModeActions inside a GitHub Actions runner, ModeConsole otherwise.
	ModeAuto Mode = "auto"
)

// 🔍 ParseMode converts a flag value into a Mode
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeConsole, ModeActions, ModeAuto:
		return m, nil
	case "":
		return ModeAuto, nil
	default:
		return "", errors.Errorf("unknown output mode %q", s)
	}
}

// 🎯 Resolve replaces ModeAuto with a concrete mode using the runner environment
func (m Mode) Resolve(getenv func(string) string) Mode {
	if m != ModeAuto {
		return m
	}
	if getenv("GITHUB_ACTIONS") == "true" {
		return ModeActions
	}
	return ModeConsole
}

// command formats a workflow command such as ::warning::message
func command(name, msg string) string {
	return "::" + name + "::" + escapeData(msg)
}

var commandEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

// escapeData escapes a workflow command message the way the runner expects.
func escapeData(s string) string {
	return commandEscaper.Replace(s)
}
