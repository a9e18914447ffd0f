package app

// ChunkText splits text into fixed-size rune slices with no overlap. The
// result is gapless and ordered: concatenating the chunks reproduces text
// exactly. The last chunk may be shorter. Empty text yields no chunks.
func ChunkText(text string, size int) []string {
	if size <= 0 || text == "" {
		return nil
	}
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
