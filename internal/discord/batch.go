package discord

// nextBatch selects the longest queue prefix that fits one webhook
// payload: at most maxCount embeds, aggregate frozen cost at most
// MaxEmbedChars. The caller removes the prefix from the queue only after
// the payload is actually accepted.
//
// A non-empty queue normally yields at least one embed (a single embed's
// cost is itself bounded by MaxEmbedChars); when it doesn't, the returned
// prefix is empty and the caller decides what to do with the oversized
// head.
func nextBatch(queue []*Embed, maxCount int) []*Embed {
	n, total := 0, 0
	for _, e := range queue {
		if n >= maxCount || total+e.Chars() > MaxEmbedChars {
			break
		}
		total += e.Chars()
		n++
	}
	return queue[:n]
}
