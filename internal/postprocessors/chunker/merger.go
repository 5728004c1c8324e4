package chunker

import "github.com/custodia-labs/paperdex-cli/internal/core/domain"

// Merge ratios relative to the target chunk size. A merge only happens to
// rescue an undersized neighbour: two chunks both at or above MinMergeRatio
// of target are never combined.
const (
	MinMergeRatio = 0.6
	MaxMergeRatio = 1.3
)

// Merge greedily coalesces adjacent undersized chunks to reduce the total
// chunk count. Order is preserved and merged offsets span the union of the
// source ranges. The defaults derive from target: min = 0.6*target,
// max = 1.3*target.
func Merge(chunks []domain.Chunk, target int) []domain.Chunk {
	return MergeWithLimits(chunks, int(float64(target)*MinMergeRatio), int(float64(target)*MaxMergeRatio))
}

// MergeWithLimits is Merge with explicit thresholds. Adjacent chunks are
// combined iff the space-joined length stays within maxMerge AND at least
// one of the two is below minMerge.
func MergeWithLimits(chunks []domain.Chunk, minMerge, maxMerge int) []domain.Chunk {
	if len(chunks) == 0 {
		return chunks
	}

	merged := make([]domain.Chunk, 0, len(chunks))
	buffer := chunks[0]

	for _, chunk := range chunks[1:] {
		combined := len(buffer.Text) + 1 + len(chunk.Text)
		if combined <= maxMerge && (len(buffer.Text) < minMerge || len(chunk.Text) < minMerge) {
			buffer.Text = buffer.Text + " " + chunk.Text
			buffer.End = chunk.End
			continue
		}
		merged = append(merged, buffer)
		buffer = chunk
	}

	return append(merged, buffer)
}
