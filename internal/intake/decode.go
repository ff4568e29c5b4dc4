package intake

import (
	"encoding/json"
	"fmt"
	"io"

	"hookrelay/internal/discord"
)

// decodeAlert parses an intake request body:
//
//	{"title": "...", "description": "...", "footer": "...",
//	 "level": "error", "context": {"key": value, ...}}
//
// The context object is decoded with the token stream, not into a map, so
// the packing order downstream matches the order keys appear in the
// document. Unknown top-level keys are rejected.
func decodeAlert(r io.Reader) (discord.Alert, error) {
	var a discord.Alert

	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return a, fmt.Errorf("invalid alert: %w", err)
	}

	levelSet := false
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return a, fmt.Errorf("invalid alert: %w", err)
		}
		key, _ := keyTok.(string)

		switch key {
		case "title":
			if err := dec.Decode(&a.Title); err != nil {
				return a, fmt.Errorf("title: %w", err)
			}
		case "description":
			if err := dec.Decode(&a.Description); err != nil {
				return a, fmt.Errorf("description: %w", err)
			}
		case "footer":
			if err := dec.Decode(&a.Footer); err != nil {
				return a, fmt.Errorf("footer: %w", err)
			}
		case "level":
			var lvl string
			if err := dec.Decode(&lvl); err != nil {
				return a, fmt.Errorf("level: %w", err)
			}
			a.Level = discord.ParseLevel(lvl, discord.LevelInfo)
			levelSet = true
		case "context":
			ctxEntries, err := decodeContext(dec)
			if err != nil {
				return a, fmt.Errorf("context: %w", err)
			}
			a.Context = ctxEntries
		default:
			return a, fmt.Errorf("unknown field %q", key)
		}
	}

	if err := expectDelim(dec, '}'); err != nil {
		return a, fmt.Errorf("invalid alert: %w", err)
	}
	if !levelSet {
		a.Level = discord.LevelInfo
	}
	return a, nil
}

// decodeContext reads a JSON object in document order.
func decodeContext(dec *json.Decoder) ([]discord.ContextEntry, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var entries []discord.ContextEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)

		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		entries = append(entries, discord.ContextEntry{Key: key, Value: normalizeValue(v)})
	}

	// consume closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return entries, nil
}

// normalizeValue unwraps json.Number (UseNumber is on so large integers
// survive as exact decimal text instead of lossy float64).
func normalizeValue(v any) any {
	if n, ok := v.(json.Number); ok {
		return n.String()
	}
	return v
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
