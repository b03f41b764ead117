package chunker

import (
	"regexp"
	"strconv"
	"strings"

	"scriptsum/internal/domain"
)

// SentenceChunker groups whole sentences into chunks with sentence overlap.
// A chunk closes early when the next sentence would push it past maxRunes;
// a single sentence longer than maxRunes is handed to a RecursiveChunker.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	maxRunes          int
	splitter          *regexp.Regexp
	fallback          *RecursiveChunker
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences, maxRunes int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	if maxRunes <= 0 {
		maxRunes = 1000
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		maxRunes:          maxRunes,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
		fallback:          NewRecursiveChunker(maxRunes, 0),
	}
}

func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	sentences := c.sentences(document.Content)
	if len(sentences) == 0 {
		return nil, nil
	}
	var chunks []domain.Chunk
	add := func(text string) {
		idx := len(chunks)
		chunks = append(chunks, domain.Chunk{
			DocumentID: document.ID,
			ChunkID:    document.ID + ":" + strconv.Itoa(idx),
			Text:       text,
			Index:      idx,
		})
	}
	i := 0
	for i < len(sentences) {
		end := i
		size := 0
		for end < len(sentences) && end-i < c.sentencesPerChunk {
			l := runeLen(sentences[end])
			if end > i {
				l++
			}
			if end > i && size+l > c.maxRunes {
				break
			}
			size += l
			end++
		}
		if size > c.maxRunes {
			// a single oversized sentence
			for _, part := range c.fallback.SplitText(sentences[i]) {
				add(part)
			}
		} else {
			add(strings.Join(sentences[i:end], " "))
		}
		if end == len(sentences) {
			break
		}
		next := end - c.overlapSentences
		if next <= i {
			next = i + 1
		}
		i = next
	}
	return chunks, nil
}

func (c *SentenceChunker) sentences(text string) []string {
	locs := c.splitter.FindAllStringIndex(text, -1)
	out := make([]string, 0, len(locs)+1)
	last := 0
	for _, loc := range locs {
		if t := strings.TrimSpace(text[loc[0]:loc[1]]); t != "" {
			out = append(out, t)
		}
		last = loc[1]
	}
	// trailing text without terminal punctuation
	if rest := strings.TrimSpace(text[last:]); rest != "" && strings.Trim(rest, ".!?") != "" {
		out = append(out, rest)
	}
	return out
}
