package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRevision   = "revision"
	KeyState      = "state"
	KeyTheme      = "theme"
	KeyStage      = "stage"
	KeyPath       = "path"
	KeyEntry      = "entry"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
	KeyUserAgent  = "user_agent"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Revision(r uint64) slog.Attr     { return slog.Uint64(KeyRevision, r) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func Theme(t string) slog.Attr        { return slog.String(KeyTheme, t) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Entry(e string) slog.Attr        { return slog.String(KeyEntry, e) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
