package discord

import "time"

// pack places segments into embeds with a single greedy pass. The current
// embed is committed and a fresh one opened whenever a segment would
// overflow the char budget, collide with an already-filled singleton slot
// (title/description/footer), or exceed the field cap.
//
// Greedy bin-filling may open more embeds than a packing optimum would,
// but it keeps segment order intact — and order, once lost, cannot be
// recovered from the correlation field alone.
//
// Every returned embed carries the same alertID in its seeded first field.
// An alert with no segments still yields exactly one embed.
func pack(segs []segment, level Level, alertID string, at time.Time) []*Embed {
	var out []*Embed

	cur := newEmbed(level, alertID, at)
	commit := func() {
		out = append(out, cur)
		cur = newEmbed(level, alertID, at)
	}

	for _, s := range segs {
		switch s.kind {
		case segTitle:
			if cur.Title != "" || cur.chars+s.cost() > MaxEmbedChars {
				commit()
			}
			cur.Title = s.value
		case segDescription:
			if cur.Description != "" || cur.chars+s.cost() > MaxEmbedChars {
				commit()
			}
			cur.Description = s.value
		case segFooter:
			if cur.Footer != nil || cur.chars+s.cost() > MaxEmbedChars {
				commit()
			}
			cur.Footer = &EmbedFooter{Text: s.value}
		case segField:
			if len(cur.Fields) >= MaxEmbedFields || cur.chars+s.cost() > MaxEmbedChars {
				commit()
			}
			cur.Fields = append(cur.Fields, EmbedField{Name: s.name, Value: s.value})
		}
		cur.chars += s.cost()
	}

	return append(out, cur)
}
