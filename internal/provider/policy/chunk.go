package policy

import "strings"

// wordsPerToken approximates English tokenization: a token is about three
// quarters of a word.
const wordsPerToken = 0.75

// minChunkChars drops trailing fragments and page furniture.
const minChunkChars = 50

// Chunk splits text into overlapping windows sized in approximate tokens.
// Whitespace is collapsed. Chunks of minChunkChars or fewer are dropped.
func Chunk(text string, chunkTokens, overlapTokens int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	size := int(float64(chunkTokens) * wordsPerToken)
	if size < 1 {
		size = 1
	}
	overlap := int(float64(overlapTokens) * wordsPerToken)
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	step := size - overlap

	var chunks []string
	for start := 0; start < len(words); start += step {
		end := min(start+size, len(words))
		chunk := strings.Join(words[start:end], " ")
		if len(chunk) > minChunkChars {
			chunks = append(chunks, chunk)
		}
		if end == len(words) {
			break
		}
	}
	return chunks
}
