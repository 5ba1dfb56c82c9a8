package chunking

import "strings"

// WordSplitter is the simple word-window chunker used on scraped
// documentation pages, where extraction has already collapsed whitespace and
// character positions carry no meaning.
type WordSplitter struct {
	ChunkWords   int
	OverlapWords int
}

func NewWordSplitter(chunkWords, overlapWords int) *WordSplitter {
	if chunkWords <= 0 {
		chunkWords = 1000
	}
	if overlapWords < 0 {
		overlapWords = 0
	}
	if overlapWords >= chunkWords {
		overlapWords = chunkWords / 4
	}
	return &WordSplitter{
		ChunkWords:   chunkWords,
		OverlapWords: overlapWords,
	}
}

func (s *WordSplitter) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := s.ChunkWords - s.OverlapWords
	if step <= 0 {
		step = s.ChunkWords
	}

	out := make([]string, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := start + s.ChunkWords
		if end > len(words) {
			end = len(words)
		}
		out = append(out, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return out
}
