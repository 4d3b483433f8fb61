package kb

import (
	"regexp"
	"sort"
	"strings"
)

var (
	spaceRe  = regexp.MustCompile(`\s+`)
	unsafeRe = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?\-—:;'"]`)
	wordRe   = regexp.MustCompile(`[\p{L}\p{N}_]+`)

	quoteReplacer = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")
)

// CleanText collapses whitespace, normalizes smart quotes and strips
// characters outside the allow-list, keeping letters with diacritics.
func CleanText(text string) string {
	text = quoteReplacer.Replace(text)
	text = spaceRe.ReplaceAllString(text, " ")
	text = unsafeRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Chunk splits text into overlapping chunks bounded by sentence-like units.
//
// Sentences are delimited by terminal punctuation followed by whitespace; this
// is a heuristic, abbreviations and decimal numbers are accepted imprecision.
// A sentence longer than maxSize becomes its own oversized chunk rather than
// being cut mid-sentence. Each chunk after the first is seeded with the last
// overlap/5 words of its predecessor. A trailing remnant shorter than minSize
// is merged into the previous chunk, even past maxSize.
//
// The function is pure and deterministic; no returned chunk is empty.
func Chunk(text string, maxSize, overlap, minSize int) []string {
	sentences := splitSentences(text)

	var chunks []string
	current := ""

	for _, sentence := range sentences {
		toAdd := sentence + " "

		if len(toAdd) > maxSize {
			if strings.TrimSpace(current) != "" {
				chunks = append(chunks, strings.TrimSpace(current))
			}
			chunks = append(chunks, strings.TrimSpace(toAdd))
			current = ""
			continue
		}

		if len(current)+len(toAdd) > maxSize && current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
			current = overlapTail(current, overlap/5) + toAdd
		} else {
			current += toAdd
		}
	}

	final := strings.TrimSpace(current)
	if final != "" {
		if len(final) < minSize && len(chunks) > 0 {
			chunks[len(chunks)-1] += " " + final
		} else {
			chunks = append(chunks, final)
		}
	}

	if len(chunks) == 0 && strings.TrimSpace(text) != "" {
		chunks = []string{text}
	}

	out := chunks[:0]
	for _, c := range chunks {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// overlapTail returns the last n words of s joined by single spaces, with a
// trailing space so the next sentence can be appended directly.
func overlapTail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	words := strings.Fields(s)
	if len(words) > n {
		words = words[len(words)-n:]
	}
	return strings.Join(words, " ") + " "
}

// splitSentences splits after '.', '!' or '?' followed by whitespace, and
// consumes the whitespace run. Terminal punctuation stays with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	i := 0
	for i < len(text) {
		c := text[i]
		if c == '.' || c == '!' || c == '?' {
			j := i + 1
			if j < len(text) && isSpace(text[j]) {
				sentences = append(sentences, text[start:i+1])
				for j < len(text) && isSpace(text[j]) {
					j++
				}
				start = j
				i = j
				continue
			}
		}
		i++
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// stopwords shared between Indonesian and English keyword extraction.
var stopwords = map[string]bool{
	"yang": true, "dan": true, "di": true, "ke": true, "dari": true,
	"untuk": true, "pada": true, "dengan": true, "adalah": true, "ini": true,
	"itu": true, "atau": true, "oleh": true, "dalam": true, "akan": true,
	"telah": true, "dapat": true, "ada": true, "sebagai": true, "juga": true,
	"tidak": true, "mereka": true, "kami": true,
	"the": true, "a": true, "an": true, "in": true, "on": true, "at": true,
	"to": true, "for": true, "of": true, "and": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
}

// ExtractKeywords returns up to topN words ordered by descending frequency.
// Frequency ties keep first-occurrence order.
func ExtractKeywords(text string, topN int) []string {
	words := wordRe.FindAllString(strings.ToLower(text), -1)

	freq := make(map[string]int)
	var order []string
	for _, w := range words {
		if len(w) <= 3 || stopwords[w] {
			continue
		}
		if _, seen := freq[w]; !seen {
			order = append(order, w)
		}
		freq[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})

	if len(order) > topN {
		order = order[:topN]
	}
	return order
}
