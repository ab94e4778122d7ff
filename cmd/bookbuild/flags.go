package main

import "time"

// Flag structs to decouple cobra from logic for testing.

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath string
}

// BuildFlags holds flags for the build command.
type BuildFlags struct {
	All        bool          // rebuild all pages regardless of modification status
	Cmd        string        // override the wrapped command
	Name       string        // session name for history/metrics
	LogDir     string        // dated build log directory
	Timeout    time.Duration // 0 = unbounded
	HistoryDSN string        // override history store DSN
}

// QuickFlags holds flags for the quick command.
type QuickFlags struct {
	All     bool
	Message string
	Remote  string
	Branch  string
}

// HistoryFlags holds flags for the history command.
type HistoryFlags struct {
	Limit int
	DSN   string
	JSON  bool
}

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	Listen   string
	BasePath string
	DSN      string
}
