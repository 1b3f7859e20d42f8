package probe

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncoding is used for models tiktoken does not know, which covers
// most locally served ones.
const fallbackEncoding = "cl100k_base"

// Stats are ground-truth figures for a piece of generated text, to hold a
// model's own analysis against.
type Stats struct {
	Words              int
	Paragraphs         int
	MostFrequentLetter rune
	LetterCount        int
	LongestWord        string
}

// Analyze counts words and letters in text. Letters are compared case
// insensitively; ties go to the alphabetically first letter and the first
// longest word.
func Analyze(text string) Stats {
	var stats Stats

	for _, block := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(block) != "" {
			stats.Paragraphs++
		}
	}

	words := strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) })
	stats.Words = len(words)

	counts := make(map[rune]int)
	for _, w := range words {
		if len([]rune(w)) > len([]rune(stats.LongestWord)) {
			stats.LongestWord = w
		}
		for _, r := range strings.ToLower(w) {
			counts[r]++
		}
	}

	for r, n := range counts {
		if n > stats.LetterCount || (n == stats.LetterCount && r < stats.MostFrequentLetter) {
			stats.MostFrequentLetter = r
			stats.LetterCount = n
		}
	}

	return stats
}

// EstimateTokens counts the tokens text would take for model. Unknown models
// fall back to cl100k_base. The encoding tables are fetched on first use.
func EstimateTokens(text, model string) (int, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return 0, fmt.Errorf("probe: load %s encoding: %w", fallbackEncoding, err)
		}
	}
	return len(enc.Encode(text, nil, nil)), nil
}
