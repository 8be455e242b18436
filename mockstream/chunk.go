package mockstream

import "math/rand/v2"

// splitChunks cuts data into consecutive chunks of minSize to maxSize
// bytes. The last chunk may be shorter.
func splitChunks(data []byte, minSize, maxSize int, rng *rand.Rand) [][]byte {
	var chunks [][]byte
	for len(data) > 0 {
		size := minSize
		if maxSize > minSize {
			size += rng.IntN(maxSize - minSize + 1)
		}
		size = min(size, len(data))
		chunks = append(chunks, data[:size])
		data = data[size:]
	}
	return chunks
}
