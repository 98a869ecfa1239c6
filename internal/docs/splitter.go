package docs

import (
	"strings"
	"unicode/utf8"
)

// Default chunking parameters. Chunks overlap so a sentence cut at a chunk
// boundary still appears whole in one of its neighbors.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// defaultSeparators are tried in order: paragraph breaks first, then line
// breaks, then words, then single characters as a last resort.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter splits text recursively on progressively finer separators until
// every chunk fits chunkSize. Lengths are measured in runes.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewSplitter creates a Splitter. Non-positive size or negative overlap fall
// back to the defaults; overlap is clamped below size.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// Split breaks text into chunks of at most chunkSize runes with
// chunkOverlap runes carried between adjacent chunks.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	// Pick the coarsest separator that actually occurs in the text.
	separator := separators[len(separators)-1]
	var remaining []string
	for i, sep := range separators {
		if sep == "" {
			separator = ""
			remaining = nil
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			remaining = separators[i+1:]
			break
		}
	}

	splits := splitOn(text, separator)

	var chunks []string
	var pending []string
	for _, piece := range splits {
		if utf8.RuneCountInString(piece) <= s.chunkSize {
			pending = append(pending, piece)
			continue
		}

		// Oversized piece: flush what we have, then recurse with finer
		// separators.
		chunks = append(chunks, s.merge(pending, separator)...)
		pending = nil

		if len(remaining) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.split(piece, remaining)...)
		}
	}
	chunks = append(chunks, s.merge(pending, separator)...)

	return chunks
}

// splitOn splits text by separator, keeping empty pieces out. An empty
// separator splits into individual runes.
func splitOn(text, separator string) []string {
	var raw []string
	if separator == "" {
		raw = strings.Split(text, "")
	} else {
		raw = strings.Split(text, separator)
	}

	splits := raw[:0]
	for _, piece := range raw {
		if piece != "" {
			splits = append(splits, piece)
		}
	}
	return splits
}

// merge greedily joins small splits into chunks up to chunkSize, sliding a
// chunkOverlap-sized tail into the next chunk.
func (s *Splitter) merge(splits []string, separator string) []string {
	if len(splits) == 0 {
		return nil
	}
	sepLen := utf8.RuneCountInString(separator)

	var chunks []string
	var window []string
	total := 0

	flush := func() {
		if len(window) == 0 {
			return
		}
		chunk := strings.TrimSpace(strings.Join(window, separator))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range splits {
		pieceLen := utf8.RuneCountInString(piece)

		if total+pieceLen+sepLen*len(window) > s.chunkSize && len(window) > 0 {
			flush()
			// Drop from the front until the kept tail fits the overlap
			// budget and leaves room for the incoming piece.
			for total > s.chunkOverlap ||
				(total+pieceLen+sepLen*len(window) > s.chunkSize && total > 0) {
				total -= utf8.RuneCountInString(window[0])
				window = window[1:]
			}
		}

		window = append(window, piece)
		total += pieceLen
	}
	flush()

	return chunks
}
