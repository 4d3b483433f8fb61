// Package normalizer cleans speech-transcription output before it enters the
// answer pipeline: case folding, character filtering, dictionary replacement
// of known mis-hearings, fuzzy correction of near-miss spellings and
// recapitalization of canonical cultural terms.
package normalizer

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
)

const DefaultFuzzyCutoff = 0.8

type replacement struct {
	wrong   string
	correct string
}

// replacements is ordered: longer, more specific phrases must apply before
// their single-word substrings.
var replacements = []replacement{
	// Core Reog Ponorogo terms
	{"riyadh ponderogo", "Reog Ponorogo"},
	{"reog ponderogo", "Reog Ponorogo"},
	{"reok ponorogo", "Reog Ponorogo"},
	{"reog ponorogo", "Reog Ponorogo"},
	{"ponorogo reg", "Reog Ponorogo"},
	{"reog", "Reog"},
	{"ponorogo", "Ponorogo"},

	// Characters and figures
	{"klono sewandono", "Raja Klono Sewandono"},
	{"bantarangin", "Kerajaan Bantarangin"},
	{"kediri", "Kerajaan Kediri"},
	{"ragil kuning", "Dewi Ragil Kuning"},
	{"putri sanggalangit", "Putri Sanggalangit"},
	{"singabarong", "Raja Singabarong"},
	{"bujanganom", "Bujanganom"},
	{"warok", "Warok"},

	// Props and cultural items
	{"dadak merak", "Dadak Merak"},
	{"ganongan", "Ganongan"},
	{"bujang ganong", "Bujang Ganong"},
	{"jaran kepang", "Jaran Kepang"},
	{"jathilan", "Jathilan"},
	{"pecut", "Pecut"},
	{"cemeti", "Cemeti"},
	{"barongan", "Barongan"},

	// Musical instruments
	{"gamelan", "Gamelan"},
	{"angklung reog", "Angklung Reog"},
	{"terompet reog", "Terompet Reog"},
	{"kongkil", "Kongkil"},
	{"kendang", "Kendang"},
	{"saron", "Saron"},
	{"gong", "Gong"},
	{"kempul", "Kempul"},

	// Institutions and recognition
	{"unesco", "UNESCO"},
	{"creative cities network", "Creative Cities Network"},
	{"museum reog ponorogo", "Museum Reog Ponorogo"},
}

// importantTerms keeps canonical capitalization for domain proper nouns.
var importantTerms = []string{
	"Reog Ponorogo",
	"Ponorogo",
	"Raja Klono Sewandono",
	"Kerajaan Bantarangin",
	"Kerajaan Kediri",
	"Dewi Ragil Kuning",
	"Putri Sanggalangit",
	"Raja Singabarong",
	"Bujanganom",
	"Warok",
	"Dadak Merak",
	"Ganongan",
	"Bujang Ganong",
	"Jaran Kepang",
	"Jathilan",
	"Pecut",
	"Cemeti",
	"Barongan",
	"Gamelan",
	"Angklung Reog",
	"Terompet Reog",
	"Kongkil",
	"Kendang",
	"Saron",
	"Gong",
	"Kempul",
	"UNESCO",
	"Creative Cities Network",
	"Museum Reog Ponorogo",
}

var unwantedRe = regexp.MustCompile(`[^a-zA-Z0-9\s.,!?]`)

// Normalizer applies the five-stage correction pipeline. It is stateless
// after construction and safe for concurrent use.
type Normalizer struct {
	cutoff  float64
	termRes []*regexp.Regexp
}

func New() *Normalizer {
	return NewWithCutoff(DefaultFuzzyCutoff)
}

func NewWithCutoff(cutoff float64) *Normalizer {
	n := &Normalizer{cutoff: cutoff}
	n.termRes = make([]*regexp.Regexp, len(importantTerms))
	for i, term := range importantTerms {
		n.termRes[i] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))
	}
	return n
}

// Normalize runs the full pipeline: lowercase, strip unwanted characters,
// dictionary replacement, fuzzy correction, recapitalization. The stage order
// is a contract, not an implementation detail.
func (n *Normalizer) Normalize(text string) string {
	s := n.NormalizeCase(text)
	s = n.RemoveUnwantedChars(s)
	s = n.ApplyDictionary(s)
	s = n.FuzzyReplace(s)
	s = n.CapitalizeTerms(s)
	return strings.TrimSpace(s)
}

// NormalizeCase folds the text to lowercase for easier matching.
func (n *Normalizer) NormalizeCase(text string) string {
	return strings.ToLower(text)
}

// RemoveUnwantedChars drops everything outside the alphanumeric and basic
// punctuation allow-list.
func (n *Normalizer) RemoveUnwantedChars(text string) string {
	return unwantedRe.ReplaceAllString(text, "")
}

// ApplyDictionary replaces known misheard phrases as whole substrings, most
// specific first.
func (n *Normalizer) ApplyDictionary(text string) string {
	for _, r := range replacements {
		text = strings.ReplaceAll(text, r.wrong, r.correct)
	}
	return text
}

// FuzzyReplace corrects individual whitespace-delimited tokens against the
// canonical term list. Multi-word terms can only be fixed by the dictionary
// stage; a token is replaced only when its best match clears the cutoff.
func (n *Normalizer) FuzzyReplace(text string) string {
	words := strings.Fields(text)
	for i, word := range words {
		if match, ok := n.closestTerm(word); ok {
			words[i] = match
		}
	}
	return strings.Join(words, " ")
}

func (n *Normalizer) closestTerm(word string) (string, bool) {
	best := ""
	bestScore := 0.0
	for _, term := range importantTerms {
		score := similarity(word, term)
		if score >= n.cutoff && score > bestScore {
			best = term
			bestScore = score
		}
	}
	return best, best != ""
}

// similarity maps Levenshtein distance to a [0,1] ratio, case-insensitively.
func similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// CapitalizeTerms restores canonical capitalization for every important term
// found as a case-insensitive substring, undoing stage one for those spans.
func (n *Normalizer) CapitalizeTerms(text string) string {
	for i, re := range n.termRes {
		text = re.ReplaceAllString(text, importantTerms[i])
	}
	return text
}
