package app

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeText(t *testing.T) {
	tests := map[string]struct {
		in   string
		want string
	}{
		"plain text is untouched":     {in: "Water", want: "Water"},
		"named entities":              {in: "&quot;Hello&quot; &amp; goodbye", want: `"Hello" & goodbye`},
		"numeric entities":            {in: "Pok&eacute;mon &#039;Red&#039;", want: "Pokémon 'Red'"},
		"escaped markup becomes text": {in: "H&lt;sub&gt;2&lt;/sub&gt;O", want: "H<sub>2</sub>O"},
		"real markup is dropped":      {in: "<b>Bold</b> move", want: "Bold move"},
		"stray less-than survives":    {in: "1 < 2", want: "1 < 2"},
		"empty":                       {in: "", want: ""},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tt.want, decodeText(tt.in))
		})
	}
}

func TestNormalizeAnswer(t *testing.T) {
	require.Equal(t, normalizeAnswer("  Paris "), normalizeAnswer("paris"))
	require.NotEqual(t, normalizeAnswer("Paris"), normalizeAnswer("Pari s"))
}

func TestShufflePreservesElements(t *testing.T) {
	inputs := [][]string{
		{"a", "b", "c", "d"},
		{"d", "c", "b", "a"},
		{"same", "same", "other", "x"},
	}
	for seed := int64(0); seed < 50; seed++ {
		rnd := rand.New(rand.NewSource(seed))
		for _, in := range inputs {
			got := append([]string(nil), in...)
			shuffle(got, rnd)

			want := append([]string(nil), in...)
			sort.Strings(want)
			sort.Strings(got)
			require.Equal(t, want, got)
		}
	}
}

func TestShuffleIsUniform(t *testing.T) {
	const rounds = 24000
	rnd := rand.New(rand.NewSource(42))
	counts := map[string]int{}
	for i := 0; i < rounds; i++ {
		items := []string{"a", "b", "c", "d"}
		shuffle(items, rnd)
		counts[strings.Join(items, "")]++
	}

	require.Len(t, counts, 24, "every ordering of four answers should occur")
	for perm, n := range counts {
		require.InDelta(t, rounds/24, n, 200, "ordering %s is skewed", perm)
	}
}
