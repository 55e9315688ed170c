package classifier

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/veritext/detector-service/internal/models"
)

// The scorer works on a fixed set of lexical signals, each normalized into
// [0,1]. Feature extraction is deliberately self-contained: the statistics
// engine's output is explanatory and never feeds the probability.
type features struct {
	Transition     float64
	Uniformity     float64
	StandardLength float64
	Diversity      float64
	Informal       float64
	FirstPerson    float64
}

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

const tokenTrimCutset = ".,!?;:\"()[]"

var transitionLexicon = map[string]struct{}{
	"however": {}, "moreover": {}, "furthermore": {}, "additionally": {},
	"consequently": {}, "therefore": {}, "thus": {}, "hence": {},
	"nevertheless": {}, "accordingly": {},
}

var informalLexicon = map[string]struct{}{
	"lol": {}, "lmao": {}, "omg": {}, "btw": {}, "idk": {}, "tbh": {},
	"gonna": {}, "wanna": {}, "gotta": {}, "kinda": {}, "sorta": {},
	"yeah": {}, "nah": {}, "haha": {}, "hehe": {}, "ugh": {},
}

var firstPersonLexicon = map[string]struct{}{
	"i": {}, "me": {}, "my": {}, "mine": {}, "we": {}, "us": {}, "our": {},
	"i'm": {}, "i've": {}, "i'll": {}, "i'd": {},
}

// tokenize splits text into lowercased, punctuation-trimmed tokens.
// Invalid UTF-8 fails tokenization and is surfaced as malformed input.
func tokenize(text string) ([]string, error) {
	if !utf8.ValidString(text) {
		return nil, models.MalformedInput("text is not valid UTF-8")
	}
	raw := strings.Fields(text)
	tokens := make([]string, 0, len(raw))
	for _, w := range raw {
		t := strings.Trim(strings.ToLower(w), tokenTrimCutset)
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		return nil, models.MalformedInput("text contains no scorable tokens")
	}
	return tokens, nil
}

func extractFeatures(text string, tokens []string) features {
	n := float64(len(tokens))

	transitions := 0.0
	informal := 0.0
	firstPerson := 0.0
	unique := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		unique[t] = struct{}{}
		if _, ok := transitionLexicon[t]; ok {
			transitions++
		}
		if _, ok := informalLexicon[t]; ok {
			informal++
		}
		if _, ok := firstPersonLexicon[t]; ok {
			firstPerson++
		}
	}
	// Ellipses count as informality markers alongside the lexicon.
	informal += float64(strings.Count(text, "..."))

	var lengths []float64
	for _, s := range sentenceBoundary.Split(text, -1) {
		if words := strings.Fields(s); len(words) > 0 {
			lengths = append(lengths, float64(len(words)))
		}
	}

	avgLen := 0.0
	sd := 0.0
	if len(lengths) > 0 {
		for _, l := range lengths {
			avgLen += l
		}
		avgLen /= float64(len(lengths))
	}
	if len(lengths) > 1 {
		variance := 0.0
		for _, l := range lengths {
			d := l - avgLen
			variance += d * d
		}
		sd = math.Sqrt(variance / float64(len(lengths)))
	}

	f := features{
		Transition:  clamp01(transitions / n / 0.05),
		Diversity:   clamp01((float64(len(unique))/n - 0.5) / 0.3),
		Informal:    clamp01(informal / n / 0.05),
		FirstPerson: clamp01(firstPerson / n / 0.06),
	}
	if len(lengths) > 1 {
		f.Uniformity = clamp01((6.0 - sd) / 6.0)
	}
	if avgLen > 0 {
		f.StandardLength = clamp01((avgLen - 8.0) / 10.0)
	}
	return f
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
