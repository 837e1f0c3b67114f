package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode is the value of the --ui flag.
type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	m := uiMode(strings.ToLower(strings.TrimSpace(value)))
	if m == "" {
		return uiModeAuto, nil
	}
	if m != uiModeAuto && m != uiModeOn && m != uiModeOff {
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
	return m, nil
}

// enabled decides whether the progress UI runs. It draws on stderr, so auto
// follows stderr; quiet runs never show it.
func (m uiMode) enabled(quiet bool) bool {
	if quiet {
		return false
	}
	if m == uiModeAuto {
		return isTerminal(os.Stderr)
	}
	return m == uiModeOn
}
