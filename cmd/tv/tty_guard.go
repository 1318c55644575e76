package main

import (
	"os"
	"strings"
)

// init runs before bubbletea touches the terminal.
//
// Lipgloss background detection writes OSC/DSR queries to stdout, which
// corrupts the JSON of headless runs when stdout is captured by a PTY.
// Headless invocations set CI=1 so termenv skips the probing.
func init() {
	if os.Getenv("CI") != "" {
		return
	}
	if !shouldSuppressTTYQueries(os.Args[1:], os.Getenv("TREEVIEW_ROBOT") == "1") {
		return
	}
	_ = os.Setenv("CI", "1")
}

func shouldSuppressTTYQueries(args []string, envRobot bool) bool {
	if envRobot {
		return true
	}
	for _, arg := range args {
		name, _, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		switch name {
		case "robot", "stats", "export", "convert", "version", "help":
			return true
		}
	}
	return false
}
