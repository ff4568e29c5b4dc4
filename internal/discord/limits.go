package discord

// Webhook size limits, already margin-adjusted from Discord's documented
// maximums (6000/256/4096/2048/256/1024) so that suffix bytes and JSON
// escaping can never push a payload over the real limit.
const (
	// MaxEmbedChars bounds the summed character cost of a single embed:
	// title + description + footer + every field name and value,
	// including the seeded correlation field. The same constant bounds
	// the aggregate cost of all embeds in one webhook payload.
	MaxEmbedChars = 5900

	// MaxEmbedFields is Discord's hard per-embed field cap.
	MaxEmbedFields = 25

	MaxTitleChars       = 200
	MaxDescriptionChars = 4000
	MaxFooterChars      = 2000
	MaxFieldNameChars   = 240
	MaxFieldValueChars  = 1000

	// MaxEmbedsPerPayload is Discord's per-message embed cap.
	MaxEmbedsPerPayload = 10
)
