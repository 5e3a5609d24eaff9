package similarity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	strictDecimal = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
	embeddedScore = regexp.MustCompile(`-?\d+(\.\d+)?`)
)

// ParseScore parses a reply that must be exactly one decimal number,
// optionally surrounded by whitespace.
func ParseScore(content string) (Score, error) {
	trimmed := strings.TrimSpace(content)
	if !strictDecimal.MatchString(trimmed) {
		return FailureScore, fmt.Errorf("%w: reply %q", ErrParse, snippet(trimmed))
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return FailureScore, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return Score(v), nil
}

// ExtractScore returns the first number embedded in free text such as "Similarity: 4.5".
// A leading minus is kept so negative replies fail CheckRange.
func ExtractScore(text string) (Score, error) {
	match := embeddedScore.FindString(text)
	if match == "" {
		return FailureScore, fmt.Errorf("%w: no number in %q", ErrParse, snippet(text))
	}
	return ParseScore(match)
}

// CheckRange returns s unchanged when valid and a RangeError otherwise.
func CheckRange(s Score) (Score, error) {
	if !s.Valid() {
		return FailureScore, &RangeError{Value: s}
	}
	return s, nil
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const limit = 80
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return s
}
