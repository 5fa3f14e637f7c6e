package analyze

import (
	"strings"
	"unicode"

	"mindcast/internal/model"
	"mindcast/internal/util"
)

// StyleMetrics summarizes writing style over the concatenated cast text.
type StyleMetrics struct {
	AvgWordsPerSentence float64
	AvgWordLength       float64
	VocabularyRatio     float64 // unique words / total words
	ProperCapRatio      float64 // sentences starting with an uppercase letter
}

// WritingStyle computes sentence, word, and vocabulary statistics.
// Returns the zero value when the set has no words.
func WritingStyle(casts []model.Cast) StyleMetrics {
	var m StyleMetrics
	if len(casts) == 0 {
		return m
	}
	texts := make([]string, 0, len(casts))
	for _, c := range casts {
		texts = append(texts, c.Text)
	}
	combined := strings.Join(texts, " ")

	words := util.Tokenize(combined)
	if len(words) == 0 {
		return m
	}
	unique := make(map[string]struct{}, len(words))
	var letters int
	for _, w := range words {
		unique[w] = struct{}{}
		letters += len([]rune(w))
	}
	m.AvgWordLength = float64(letters) / float64(len(words))
	m.VocabularyRatio = float64(len(unique)) / float64(len(words))

	sentences := util.SplitSentences(combined)
	if len(sentences) > 0 {
		var capitalized int
		for _, s := range sentences {
			r := []rune(s)[0]
			if unicode.IsUpper(r) {
				capitalized++
			}
		}
		m.AvgWordsPerSentence = float64(len(words)) / float64(len(sentences))
		m.ProperCapRatio = float64(capitalized) / float64(len(sentences))
	}
	return m
}
