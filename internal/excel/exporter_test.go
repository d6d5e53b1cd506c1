package excel

import (
	"bytes"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/langler/pkg/models"
)

func ptr[T any](v T) *T { return &v }

func TestExportItems(t *testing.T) {
	now := time.Date(2025, 9, 11, 12, 0, 0, 0, time.UTC)
	last := now.AddDate(0, 0, -10)
	items := []models.Item{
		{UserID: 1, WordID: 1},
		{UserID: 1, WordID: 2, State: models.StateReview,
			Stability: ptr(10.0), Difficulty: ptr(4.5),
			Interval: 10, Due: ptr(now), LastReviewedAt: ptr(last)},
		{UserID: 1, WordID: 3, State: models.StateLearning},
	}
	words := map[int64]models.Word{
		1: {ID: 1, Text: "apple", Translation: "яблоко"},
		2: {ID: 2, Text: "river", Translation: "река"},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportItems(&buf, items, words, now))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "Word", rows[0][0])
	assert.Equal(t, "Last review", rows[0][8])

	assert.Equal(t, []string{"apple", "яблоко", "new", "", "", "", "0"}, rows[1])

	river := rows[2]
	require.Len(t, river, 9)
	assert.Equal(t, "river", river[0])
	assert.Equal(t, "review", river[2])
	assert.Equal(t, "10", river[3])
	assert.Equal(t, "4.5", river[4])
	r, err := strconv.ParseFloat(river[5], 64)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, r, 1e-9)
	assert.Equal(t, "10", river[6])
	assert.Equal(t, "2025-09-11 12:00", river[7])
	assert.Equal(t, "2025-09-01 12:00", river[8])

	assert.Equal(t, "#3", rows[3][0])
	assert.Equal(t, "learning", rows[3][2])
}

func TestExportItems_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportItems(&buf, nil, nil, time.Now()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
