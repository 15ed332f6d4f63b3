package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadSheet(t *testing.T) {
	buf := workbook(t,
		sheetHeaders,
		[]interface{}{"Math", "algebra", "2 + 2 = ?", "3", "4", "5", "6", "b"},
		[]interface{}{},
		[]interface{}{"english", "", "Pick the synonym of quick", "fast", "slow", "", "", "fast"},
	)

	questions, err := readSheet(buf)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	assert.Equal(t, "math", questions[0].Category)
	assert.Equal(t, "algebra", questions[0].Topic)
	assert.Equal(t, []string{"3", "4", "5", "6"}, []string(questions[0].Choices))
	assert.Equal(t, "4", questions[0].Answer)

	assert.Equal(t, "english", questions[1].Category)
	assert.Equal(t, []string{"fast", "slow"}, []string(questions[1].Choices))
	assert.Equal(t, "fast", questions[1].Answer)
	assert.True(t, questions[1].HasAnswerInChoices())
}

func TestReadSheet_Errors(t *testing.T) {
	t.Run("header only", func(t *testing.T) {
		_, err := readSheet(workbook(t, sheetHeaders))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no questions")
	})

	t.Run("missing answer", func(t *testing.T) {
		_, err := readSheet(workbook(t, sheetHeaders, []interface{}{"math", "", "q", "a", "b"}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 2")
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := readSheet(strings.NewReader("category,topic"))
		require.Error(t, err)
	})
}

func TestWriteTemplate_RoundTripsThroughReader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTemplate(&buf))

	questions, err := readSheet(&buf)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "math", questions[0].Category)
	assert.Equal(t, "4", questions[0].Answer)
}

func TestDecodeQuestions(t *testing.T) {
	questions, err := decodeQuestions(".JSON", strings.NewReader(`[{"category":" Math ","topic":"geometry","question":"q","choices":["a","b"],"answer":"a"}]`))
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "math", questions[0].Category)
	assert.Equal(t, "q", questions[0].Text)

	_, err = decodeQuestions(".csv", strings.NewReader(""))
	require.Error(t, err)
}
