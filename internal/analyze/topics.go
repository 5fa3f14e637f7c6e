package analyze

import (
	"strings"

	"mindcast/internal/model"
)

// TopicMetrics summarizes topical spread over the concatenated cast text.
type TopicMetrics struct {
	Matches      map[string]int
	Diversity    float64 // 100 * categories with at least one match / 8
	PrimaryTopic string
}

// topicCategories is a fixed list; declaration order breaks primary-topic
// ties, so it must stay stable.
var topicCategories = []struct {
	name     string
	keywords []string
}{
	{"tech", []string{"ai ", "software", "code", "crypto", "blockchain", "programming", "developer", "startup", "protocol", "onchain"}},
	{"finance", []string{"market", "invest", "stock", "trading", "price", "economy", "defi", "token", "portfolio", "yield"}},
	{"politics", []string{"election", "government", "policy", "senate", "congress", "vote", "president", "legislation"}},
	{"culture", []string{"art ", "music", "film", "book", "culture", "design", "fashion", "museum"}},
	{"sports", []string{"game ", "team", "league", "playoff", "championship", "goal ", "season", "athlete"}},
	{"humor", []string{"lol", "lmao", "joke", "funny", "meme", "haha"}},
	{"philosophy", []string{"truth", "meaning", "ethics", "consciousness", "wisdom", "existence", "morality"}},
	{"science", []string{"research", "study", "physics", "biology", "experiment", "theory", "quantum", "climate"}},
}

// TopicDiversity counts keyword matches per category over the lowercased
// concatenated text. Diversity is the fraction of the 8 categories hit,
// scaled to 0-100; the primary topic is the category with the most matches,
// earliest declared category winning ties.
func TopicDiversity(casts []model.Cast) TopicMetrics {
	m := TopicMetrics{Matches: make(map[string]int, len(topicCategories))}
	if len(casts) == 0 {
		return m
	}
	var sb strings.Builder
	for _, c := range casts {
		sb.WriteString(strings.ToLower(c.Text))
		sb.WriteString(" ")
	}
	text := sb.String()

	hit := 0
	best := -1
	for _, cat := range topicCategories {
		count := 0
		for _, kw := range cat.keywords {
			count += strings.Count(text, kw)
		}
		m.Matches[cat.name] = count
		if count > 0 {
			hit++
		}
		if count > best && count > 0 {
			best = count
			m.PrimaryTopic = cat.name
		}
	}
	m.Diversity = 100 * float64(hit) / float64(len(topicCategories))
	return m
}
