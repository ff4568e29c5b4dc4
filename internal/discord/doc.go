// Package discord turns structured alerts into Discord webhook payloads.
//
// An alert is first cut into ordered segments (title, description chunks,
// context fields, footer), the segments are greedily packed into
// size-bounded embeds, and committed embeds are queued for timer-driven
// batch delivery. The packing never reorders segments belonging to one
// alert; embeds spanning the same alert share a correlation field so
// receivers can reassociate them.
package discord
