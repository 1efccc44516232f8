package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMatchAnswerFactual(t *testing.T) {
	q := Question{Text: "Столица Австралии?", Answers: []string{"канберра"}}

	assert.True(t, MatchAnswer(q, "Канберра"))
	assert.True(t, MatchAnswer(q, "думаю, это КАНБЕРРА"))
	assert.False(t, MatchAnswer(q, "Сидней"))
	assert.False(t, MatchAnswer(q, ""))
	assert.False(t, MatchAnswer(q, "   "))
}

func TestMatchAnswerMultipleVariants(t *testing.T) {
	q := Question{Text: "Сколько планет?", Answers: []string{"8", "восемь"}}

	assert.True(t, MatchAnswer(q, "их 8"))
	assert.True(t, MatchAnswer(q, "Восемь штук"))
	assert.False(t, MatchAnswer(q, "девять"))
}

func TestMatchAnswerPersonal(t *testing.T) {
	q := Question{Text: "Любимый фильм?", Personal: true}

	assert.True(t, MatchAnswer(q, "Интерстеллар"))
	assert.False(t, MatchAnswer(q, ""))
	assert.False(t, MatchAnswer(q, "  \t "))
}

func TestPickQuestionDeterministic(t *testing.T) {
	idx := pickQuestion("2025-06-01")
	for i := 0; i < 10; i++ {
		assert.Equal(t, idx, pickQuestion("2025-06-01"))
	}
	assert.GreaterOrEqual(t, idx, 0)
	assert.Less(t, idx, len(questionBank))
}

func TestPickQuestionInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		key := rapid.StringMatching(`20\d{2}-[01]\d-[0-3]\d`).Draw(t, "key")
		idx := pickQuestion(key)
		if idx < 0 || idx >= len(questionBank) {
			t.Fatalf("индекс %d вне банка", idx)
		}
	})
}

func TestQuestionBankSane(t *testing.T) {
	require.NotEmpty(t, questionBank)
	for _, q := range questionBank {
		assert.NotEmpty(t, q.Text)
		if !q.Personal {
			require.NotEmpty(t, q.Answers, q.Text)
			for _, a := range q.Answers {
				// Эталоны храним в нижнем регистре, иначе матч не сработает
				assert.Equal(t, a, toLower(a), q.Text)
			}
		}
	}
}

func toLower(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r >= 'А' && r <= 'Я' {
			out[i] = r + 32
		}
		if r >= 'A' && r <= 'Z' {
			out[i] = r + 32
		}
	}
	return string(out)
}
