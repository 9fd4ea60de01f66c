package config

import "log/slog"

// SlogLevel maps a normalized log level name to slog. Unknown and empty
// names map to info.
func SlogLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
