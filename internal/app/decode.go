package app

import (
	"math/rand"
	"strings"

	"golang.org/x/net/html"
)

// decodeText returns the human-readable text of an HTML-encoded fragment:
// entities are decoded and markup is dropped.
func decodeText(s string) string {
	if !strings.ContainsAny(s, "&<") {
		return s
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// normalizeAnswer is the comparison form of an answer.
func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// shuffle is an in-place Fisher-Yates shuffle; every permutation is equally likely.
func shuffle(items []string, rnd *rand.Rand) {
	for i := len(items) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
