package discord

import (
	"encoding/json"
	"fmt"
)

type segmentKind int

const (
	segTitle segmentKind = iota
	segDescription
	segFooter
	segField
)

// segment is one atomic unit of alert content. Segments exist only between
// segmentation and packing; they are never queued or sent.
type segment struct {
	kind  segmentKind
	name  string // field segments only
	value string
}

// cost is the segment's contribution to an embed's character budget.
func (s segment) cost() int { return len(s.name) + len(s.value) }

// toSegments cuts an alert into ordered segments: title, description
// chunks, context fields, footer. Title/footer/field content is truncated
// to its budget; the description is never truncated, only split into
// consecutive chunks of at most MaxDescriptionChars bytes each.
func toSegments(a Alert, suffix string) []segment {
	segs := make([]segment, 0, 2+len(a.Context))

	if a.Title != "" {
		segs = append(segs, segment{kind: segTitle, value: Truncate(a.Title, MaxTitleChars, suffix)})
	}

	for desc := a.Description; desc != ""; {
		n := min(len(desc), MaxDescriptionChars)
		segs = append(segs, segment{kind: segDescription, value: desc[:n]})
		desc = desc[n:]
	}

	for _, kv := range a.Context {
		segs = append(segs, segment{
			kind:  segField,
			name:  Truncate(kv.Key, MaxFieldNameChars, suffix),
			value: Truncate(stringify(kv.Value), MaxFieldValueChars, suffix),
		})
	}

	if a.Footer != "" {
		segs = append(segs, segment{kind: segFooter, value: Truncate(a.Footer, MaxFooterChars, suffix)})
	}

	return segs
}

// stringify renders a context value for a field slot. Strings pass through
// untouched. Errors render with %+v so wrapped errors that carry stacks or
// extra detail keep it. Everything else goes through JSON (math/big values
// marshal as plain decimal text), with a %v fallback for values JSON can't
// encode (channels, funcs, NaN floats).
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case error:
		return fmt.Sprintf("%+v", t)
	case fmt.Stringer:
		return t.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
