package progress

import "github.com/CloudShih/ripsearch/internal/models"

// DefaultBufferItems is the item-count flush threshold.
const DefaultBufferItems = 50

// Buffer accumulates finished FileResults and hands them to a flush callback
// when either the item-count threshold or the estimated-memory ceiling is
// reached. When no byte ceiling is configured (memory introspection
// unavailable), it falls back to half the item threshold. Flush must also be
// called once at stream end for the remainder.
type Buffer struct {
	flush    func([]*models.FileResult)
	maxItems int
	maxBytes int
	items    []*models.FileResult
	bytes    int
}

// NewBuffer creates a buffer. maxItems <= 0 uses DefaultBufferItems;
// maxBytes <= 0 disables the byte ceiling and halves the item threshold.
func NewBuffer(maxItems, maxBytes int, flush func([]*models.FileResult)) *Buffer {
	if maxItems <= 0 {
		maxItems = DefaultBufferItems
	}
	if maxBytes <= 0 {
		maxBytes = 0
		maxItems = maxItems / 2
		if maxItems < 1 {
			maxItems = 1
		}
	}
	return &Buffer{flush: flush, maxItems: maxItems, maxBytes: maxBytes}
}

// Add appends fr and flushes if a threshold is crossed.
func (b *Buffer) Add(fr *models.FileResult) {
	b.items = append(b.items, fr)
	b.bytes += estimateSize(fr)
	if len(b.items) >= b.maxItems || (b.maxBytes > 0 && b.bytes >= b.maxBytes) {
		b.Flush()
	}
}

// Flush emits any buffered results and resets the buffer.
func (b *Buffer) Flush() {
	if len(b.items) == 0 {
		return
	}
	items := b.items
	b.items = nil
	b.bytes = 0
	if b.flush != nil {
		b.flush(items)
	}
}

// Len returns the number of buffered results.
func (b *Buffer) Len() int { return len(b.items) }

// estimateSize approximates the in-memory footprint of one FileResult.
func estimateSize(fr *models.FileResult) int {
	const perMatchOverhead = 96
	size := len(fr.FilePath) + 64
	for _, m := range fr.Matches {
		size += perMatchOverhead + len(m.Content)
		for _, c := range m.ContextBefore {
			size += len(c) + 16
		}
		for _, c := range m.ContextAfter {
			size += len(c) + 16
		}
		size += len(m.Highlights) * 24
	}
	return size
}
