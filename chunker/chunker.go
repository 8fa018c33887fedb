// Package chunker splits validated document text into overlapping,
// paragraph-respecting chunks for downstream processing.
package chunker

import (
	"fmt"
	"strings"
)

// Chunk is a contiguous slice of document text. OverlapWords counts the
// whole words carried over from the previous chunk.
type Chunk struct {
	Text         string `json:"text"`
	Index        int    `json:"index"`
	OverlapWords int    `json:"overlap_words"`
}

// Chunker accumulates paragraphs into chunks of roughly ChunkSize characters,
// seeding each new chunk with the trailing OverlapSize characters' worth of
// whole words from the previous one.
//
// A paragraph longer than ChunkSize is emitted whole unless HardSplit is set.
// Emitting oversized paragraphs intact is the default policy: clause
// boundaries matter more to downstream processing than a strict size cap.
type Chunker struct {
	ChunkSize   int
	OverlapSize int
	HardSplit   bool
}

func New(chunkSize, overlapSize int) (*Chunker, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlapSize < 0 || overlapSize >= chunkSize {
		return nil, fmt.Errorf("overlap size must be in [0, chunk size), got overlap=%d chunk=%d", overlapSize, chunkSize)
	}
	return &Chunker{ChunkSize: chunkSize, OverlapSize: overlapSize}, nil
}

// Split chunks text on blank-line paragraph boundaries. It is deterministic:
// the same (text, ChunkSize, OverlapSize) always yields the same sequence.
func (c *Chunker) Split(text string) []Chunk {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	s := &splitState{chunker: c}
	for _, para := range paragraphs {
		if c.HardSplit && len(para) > c.ChunkSize {
			for _, piece := range hardSplit(para, c.ChunkSize) {
				s.append(piece)
			}
			continue
		}
		s.append(para)
	}
	s.finish()
	return s.chunks
}

type splitState struct {
	chunker      *Chunker
	chunks       []Chunk
	buffer       strings.Builder
	overlapWords int
	// seedOnly is true while the buffer holds nothing but the overlap seed,
	// so an oversized paragraph cannot force the seed out as its own chunk.
	seedOnly bool
}

func (s *splitState) append(para string) {
	sep := 0
	if s.buffer.Len() > 0 {
		sep = 2
	}
	if s.buffer.Len() > 0 && !s.seedOnly && s.buffer.Len()+sep+len(para) > s.chunker.ChunkSize {
		s.flush()
	}
	if s.buffer.Len() > 0 {
		s.buffer.WriteString("\n\n")
	}
	s.buffer.WriteString(para)
	s.seedOnly = false
}

func (s *splitState) flush() {
	if s.buffer.Len() == 0 {
		return
	}
	s.chunks = append(s.chunks, Chunk{
		Text:         s.buffer.String(),
		Index:        len(s.chunks),
		OverlapWords: s.overlapWords,
	})
	seed, n := trailingWords(s.buffer.String(), s.chunker.OverlapSize)
	s.buffer.Reset()
	s.overlapWords = n
	if seed != "" {
		s.buffer.WriteString(seed)
		s.seedOnly = true
	}
}

// finish flushes the final non-empty buffer, unless it holds only a seed
// (everything in it already appeared in the previous chunk).
func (s *splitState) finish() {
	if s.seedOnly {
		return
	}
	if s.buffer.Len() > 0 {
		s.chunks = append(s.chunks, Chunk{
			Text:         s.buffer.String(),
			Index:        len(s.chunks),
			OverlapWords: s.overlapWords,
		})
	}
}

func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// trailingWords returns the longest suffix of whole words whose combined
// length does not exceed budget. Words are never split.
func trailingWords(text string, budget int) (string, int) {
	if budget <= 0 {
		return "", 0
	}
	words := strings.Fields(text)
	var picked []string
	size := 0
	for i := len(words) - 1; i >= 0; i-- {
		w := words[i]
		add := len(w)
		if len(picked) > 0 {
			add++
		}
		if size+add > budget {
			break
		}
		picked = append([]string{w}, picked...)
		size += add
	}
	return strings.Join(picked, " "), len(picked)
}

func hardSplit(para string, size int) []string {
	var pieces []string
	words := strings.Fields(para)
	var buf strings.Builder
	for _, w := range words {
		add := len(w)
		if buf.Len() > 0 {
			add++
		}
		if buf.Len() > 0 && buf.Len()+add > size {
			pieces = append(pieces, buf.String())
			buf.Reset()
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(w)
	}
	if buf.Len() > 0 {
		pieces = append(pieces, buf.String())
	}
	return pieces
}
