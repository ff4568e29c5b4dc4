package discord

import "testing"

func embedWithChars(n int) *Embed {
	return &Embed{chars: n}
}

func TestNextBatchCountCap(t *testing.T) {
	t.Parallel()
	queue := make([]*Embed, 15)
	for i := range queue {
		queue[i] = embedWithChars(10)
	}
	batch := nextBatch(queue, MaxEmbedsPerPayload)
	if len(batch) != MaxEmbedsPerPayload {
		t.Fatalf("batch len = %d, want %d", len(batch), MaxEmbedsPerPayload)
	}
}

func TestNextBatchCharBudget(t *testing.T) {
	t.Parallel()
	queue := []*Embed{
		embedWithChars(3000),
		embedWithChars(2000),
		embedWithChars(1500), // 3000+2000+1500 > 5900
		embedWithChars(10),
	}
	batch := nextBatch(queue, MaxEmbedsPerPayload)
	if len(batch) != 2 {
		t.Fatalf("batch len = %d, want 2", len(batch))
	}
	if batch[0] != queue[0] || batch[1] != queue[1] {
		t.Fatal("batch is not the queue prefix")
	}
}

func TestNextBatchExactBudget(t *testing.T) {
	t.Parallel()
	queue := []*Embed{
		embedWithChars(MaxEmbedChars - 100),
		embedWithChars(100),
		embedWithChars(1),
	}
	batch := nextBatch(queue, MaxEmbedsPerPayload)
	if len(batch) != 2 {
		t.Fatalf("batch len = %d, want 2 (aggregate exactly at budget)", len(batch))
	}
}

func TestNextBatchEmptyQueue(t *testing.T) {
	t.Parallel()
	if got := nextBatch(nil, MaxEmbedsPerPayload); len(got) != 0 {
		t.Fatalf("batch len = %d, want 0", len(got))
	}
}

func TestNextBatchOversizedHead(t *testing.T) {
	t.Parallel()
	// The packer can't produce this, but the batcher must not select an
	// embed that alone blows the payload budget.
	queue := []*Embed{embedWithChars(MaxEmbedChars + 1), embedWithChars(10)}
	if got := nextBatch(queue, MaxEmbedsPerPayload); len(got) != 0 {
		t.Fatalf("batch len = %d, want 0", len(got))
	}
}
