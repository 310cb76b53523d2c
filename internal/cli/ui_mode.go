package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"llmbench/internal/config"
)

// uiModeDecision says which renderer a run uses.
type uiModeDecision struct {
	useLive bool
	warning string
}

// isTerminal reports whether a writer is a TTY. Tests replace it.
var isTerminal = defaultIsTerminal

// resolveUIMode picks the live view or plain lines. Verbose logging always
// gets plain output so log lines stay readable.
func resolveUIMode(mode string, verbose bool, stdout io.Writer) (uiModeDecision, error) {
	normalized := strings.ToLower(strings.TrimSpace(mode))
	if normalized == "" {
		normalized = config.UIModeAuto
	}
	switch normalized {
	case config.UIModeAuto, config.UIModeLive, config.UIModePlain:
	default:
		return uiModeDecision{}, fmt.Errorf("invalid ui mode %q (expected auto|live|plain)", mode)
	}
	if verbose || normalized == config.UIModePlain {
		return uiModeDecision{}, nil
	}
	tty := isTerminal(stdout)
	if normalized == config.UIModeLive && !tty {
		return uiModeDecision{warning: "live view requested but stdout is not a terminal; using plain output"}, nil
	}
	return uiModeDecision{useLive: tty}, nil
}

func defaultIsTerminal(w io.Writer) bool {
	switch v := w.(type) {
	case nil:
		return false
	case *os.File:
		return term.IsTerminal(int(v.Fd()))
	case interface{ Fd() uintptr }:
		return term.IsTerminal(int(v.Fd()))
	default:
		return false
	}
}
