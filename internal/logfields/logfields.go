package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyContentID  = "content_id"
	KeyTheme      = "theme"
	KeySource     = "source"
	KeyReason     = "reason"
	KeyPath       = "path"
	KeyAddr       = "addr"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func ContentID(id string) slog.Attr   { return slog.String(KeyContentID, id) }
func Theme(name string) slog.Attr     { return slog.String(KeyTheme, name) }
func Source(path string) slog.Attr    { return slog.String(KeySource, path) }
func Reason(r string) slog.Attr       { return slog.String(KeyReason, r) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
