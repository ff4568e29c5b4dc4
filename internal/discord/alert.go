package discord

import "strings"

// Level is the severity of an alert. It only influences the embed color;
// delivery behavior is identical across levels.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelCritical:
		return "critical"
	default:
		return "info"
	}
}

// color returns the Discord embed sidebar color for the level.
func (l Level) color() int {
	switch l {
	case LevelDebug:
		return 0x95a5a6 // gray
	case LevelInfo:
		return 0x3498db // blue
	case LevelWarn:
		return 0xf1c40f // yellow
	case LevelError:
		return 0xe74c3c // red
	case LevelCritical:
		return 0x992d22 // dark red
	default:
		return 0x95a5a6
	}
}

// ParseLevel maps a level name to a Level, falling back to def.
func ParseLevel(s string, def Level) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "critical", "crit", "fatal":
		return LevelCritical
	default:
		return def
	}
}

// ContextEntry is one key/value pair attached to an alert. Entries are a
// slice, not a map: packing order must follow insertion order, and Go maps
// don't keep one.
type ContextEntry struct {
	Key   string
	Value any
}

// Alert is a caller-supplied message. All parts are optional; an alert
// with no content still produces one (nearly empty) embed so the
// correlation identifier reaches the channel.
//
// Context is semantically capped at 25 entries by the webhook's field
// limit; longer contexts are legal and simply span multiple embeds.
type Alert struct {
	Title       string
	Description string
	Footer      string
	Level       Level
	Context     []ContextEntry
}
