package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/engbot/internal/conversation"
	"github.com/example/engbot/internal/excel"
	"github.com/example/engbot/internal/session"
	"github.com/example/engbot/pkg/models"
)

func TestRender_EscapesUserContent(t *testing.T) {
	m := render(session.Reply{
		Kind: session.ReplyLearnWord,
		Word: models.WordEntry{Term: "<b>", Translation: "a & b", Example: "x > y"},
	})
	assert.Equal(t, "<b>&lt;b&gt;</b> — a &amp; b\nПример: <i>x &gt; y</i>", m.text)
	assert.Nil(t, m.keyboard)
}

func TestRender_LearnWordWithoutExample(t *testing.T) {
	m := render(session.Reply{Kind: session.ReplyLearnWord, Word: models.WordEntry{Term: "cat", Translation: "кошка"}})
	assert.Equal(t, "<b>cat</b> — кошка", m.text)
}

func TestRender_EveryKindHasText(t *testing.T) {
	kinds := []session.ReplyKind{
		session.ReplyAskTerm, session.ReplyAskTranslation, session.ReplyAskExample,
		session.ReplyWordAdded, session.ReplyWordExists, session.ReplyInvalidInput,
		session.ReplyTestQuestion, session.ReplyTestCorrect, session.ReplyTestWrong,
		session.ReplyTestComplete, session.ReplyNoTestWords, session.ReplyStopped,
		session.ReplyNothingToStop, session.ReplyLearnWord, session.ReplyNoNewWords,
		session.ReplyStatistics, session.ReplyRepeatWord, session.ReplyRepeatComplete,
		session.ReplyNoDueWords, session.ReplySequenceExpired, session.ReplyWordUnavailable,
		session.ReplyUnexpectedText,
	}
	for _, kind := range kinds {
		m := render(session.Reply{Kind: kind})
		assert.NotEmpty(t, m.text, kind)
		assert.NotEqual(t, internalErrorText, m.text, kind)
	}
	assert.Equal(t, internalErrorText, render(session.Reply{Kind: "bogus"}).text)
}

func TestRender_InvalidInputNamesTheStep(t *testing.T) {
	assert.Contains(t, render(session.Reply{Kind: session.ReplyInvalidInput, Step: conversation.StepEnglish}).text, "английское слово")
	assert.Contains(t, render(session.Reply{Kind: session.ReplyInvalidInput, Step: conversation.StepRussian}).text, "перевод")
	assert.Contains(t, render(session.Reply{Kind: session.ReplyInvalidInput}).text, "попробуй ещё раз")
}

func TestRender_Statistics(t *testing.T) {
	m := render(session.Reply{Kind: session.ReplyStatistics, Statistics: models.Statistics{Total: 12, Learned: 0}})
	assert.Equal(t, "📊 Всего слов: 12\nВыучено: 0", m.text)
}

func TestRepeatCallbackData(t *testing.T) {
	data := repeatCallbackData(session.DecisionDontKnow, "look up: to search")
	assert.Equal(t, "repeat:dont:look up: to search", data)
	assert.LessOrEqual(t, len(repeatCallbackData(session.DecisionDontKnow, strings.Repeat("x", conversation.MaxTermLength))), 64)

	decision, term, err := parseRepeatCallback(data)
	require.NoError(t, err)
	assert.Equal(t, session.DecisionDontKnow, decision)
	assert.Equal(t, "look up: to search", term)

	for _, bad := range []string{"", "repeat", "repeat:know", "repeat:know:", "other:know:cat"} {
		_, _, err := parseRepeatCallback(bad)
		assert.ErrorIs(t, err, ErrMalformedCallback, bad)
	}
}

func TestPluralWords(t *testing.T) {
	tests := map[int]string{
		0: "слов", 1: "слово", 2: "слова", 4: "слова", 5: "слов",
		11: "слов", 12: "слов", 14: "слов", 21: "слово", 22: "слова", 111: "слов",
	}
	for n, want := range tests {
		assert.Equal(t, want, pluralWords(n), n)
	}
}

func TestImportSummary_TruncatesErrors(t *testing.T) {
	result := &excel.ImportResult{Processed: 15, Skipped: 15}
	for i := 0; i < 15; i++ {
		result.Errors = append(result.Errors, "Row <x>")
	}
	text := importSummary(result)
	assert.Equal(t, 10, strings.Count(text, "Row &lt;x&gt;"))
	assert.Contains(t, text, "и ещё 5")
}
