package analyzer

import "go-emotion-inspector/pkg/models"

// keywordLexicon maps each scored label to the words that count toward it.
// Neutral has no keywords; it receives the leftover mass.
var keywordLexicon = map[models.Emotion][]string{
	models.Happy: {
		"happy", "joy", "joyful", "excited", "delighted", "glad", "great", "good",
		"love", "wonderful", "hopeful", "optimistic", "grateful", "smile",
	},
	models.Sad: {
		"sad", "down", "unhappy", "depressed", "blue", "gloomy", "tired", "exhausted",
		"lonely", "cry", "sorrow", "disappointed",
	},
	models.Angry: {
		"angry", "mad", "furious", "rage", "annoyed", "irritated", "frustrated",
		"hate", "upset", "offended",
	},
	models.Fear: {
		"afraid", "scared", "fear", "terrified", "anxious", "anxiety", "worried",
		"concerned", "nervous",
	},
	models.Surprise: {
		"surprised", "shocked", "amazed", "astonished", "wow", "unexpected",
	},
}

// negationWords push weight toward sad and angry
var negationWords = []string{"no", "not", "never", "can't", "won't", "don't"}

// keywordIndex is the inverted lexicon used by the scorer
var keywordIndex = buildKeywordIndex()

func buildKeywordIndex() map[string]models.Emotion {
	index := make(map[string]models.Emotion)
	for emotion, words := range keywordLexicon {
		for _, w := range words {
			index[w] = emotion
		}
	}
	return index
}

// Keywords returns a copy of the keyword list for a label
func Keywords(e models.Emotion) []string {
	words := keywordLexicon[e]
	out := make([]string, len(words))
	copy(out, words)
	return out
}
