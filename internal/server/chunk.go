package server

// A LINE reply carries at most this many messages.
const maxReplyMessages = 5

// chunkText splits text into rune-safe chunks of at most size characters,
// capped at maxReplyMessages chunks. Anything beyond the cap is dropped; the
// chunk budget comfortably covers any answer the model produces.
func chunkText(text string, size int) []string {
	if size <= 0 || len(text) == 0 {
		return []string{text}
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	for start := 0; start < len(runes) && len(chunks) < maxReplyMessages; start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
