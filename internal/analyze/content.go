package analyze

import (
	"regexp"
	"strings"

	"mindcast/internal/model"
)

// ContentMetrics summarizes surface-level content quality of a cast set.
// Ratios are count(casts matching) / total casts.
type ContentMetrics struct {
	AvgLength        float64
	LongRatio        float64 // casts over 100 chars
	ShortRatio       float64 // casts under 50 chars
	EmojiRatio       float64
	LinkRatio        float64
	MentionRatio     float64
	HashtagRatio     float64
	QuestionRatio    float64
	ExclamationRatio float64
}

var linkPattern = regexp.MustCompile(`https?://\S+`)

// ContentQuality computes length and presence ratios over a cast set.
// Returns the zero value for an empty set.
func ContentQuality(casts []model.Cast) ContentMetrics {
	var m ContentMetrics
	if len(casts) == 0 {
		return m
	}
	var totalLen, long, short, emoji, link, mention, hashtag, question, exclaim int
	for _, c := range casts {
		n := len([]rune(c.Text))
		totalLen += n
		if n > 100 {
			long++
		}
		if n < 50 {
			short++
		}
		if containsEmoji(c.Text) {
			emoji++
		}
		if linkPattern.MatchString(c.Text) {
			link++
		}
		if strings.Contains(c.Text, "@") {
			mention++
		}
		if strings.Contains(c.Text, "#") {
			hashtag++
		}
		if strings.Contains(c.Text, "?") {
			question++
		}
		if strings.Contains(c.Text, "!") {
			exclaim++
		}
	}
	total := float64(len(casts))
	m.AvgLength = float64(totalLen) / total
	m.LongRatio = float64(long) / total
	m.ShortRatio = float64(short) / total
	m.EmojiRatio = float64(emoji) / total
	m.LinkRatio = float64(link) / total
	m.MentionRatio = float64(mention) / total
	m.HashtagRatio = float64(hashtag) / total
	m.QuestionRatio = float64(question) / total
	m.ExclamationRatio = float64(exclaim) / total
	return m
}

func containsEmoji(s string) bool {
	for _, r := range s {
		switch {
		case r >= 0x1F300 && r <= 0x1FAFF: // pictographs, emoticons, symbols
			return true
		case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
			return true
		case r == 0x2764 || r == 0x2B50:
			return true
		}
	}
	return false
}
