package discord

// Truncate bounds s to at most max bytes, replacing the tail with suffix
// when a cut is needed. The result is exactly max bytes long whenever s
// had to be cut and the suffix fits. When the suffix itself is max bytes
// or longer, the bare prefix s[:max] is returned instead (never a negative
// slice). Truncating an already-truncated string again is a no-op.
func Truncate(s string, max int, suffix string) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if len(suffix) >= max {
		return s[:max]
	}
	return s[:max-len(suffix)] + suffix
}
