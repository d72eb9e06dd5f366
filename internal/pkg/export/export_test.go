package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sample() Dataset {
	return Dataset{
		Headers: []string{"Date", "Net Hours", "Task"},
		Rows: []map[string]string{
			{"Date": "2025-03-10", "Net Hours": "8.00", "Task": "Stocktake, shelf labels"},
			{"Date": "2025-03-11", "Net Hours": "7.50"},
		},
		Notes: []string{"Trainee: Ana Cruz", "Total hours: 15.50"},
	}
}

func TestCSVExporter_Render(t *testing.T) {
	out, err := NewCSVExporter().Render(sample())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Net Hours,Task", lines[0])
	assert.Equal(t, `2025-03-10,8.00,"Stocktake, shelf labels"`, lines[1])
	assert.Equal(t, "2025-03-11,7.50,", lines[2])

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporter_Render(t *testing.T) {
	out, err := NewPDFExporter().Render(sample(), "Weekly timesheet")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporter_Render(t *testing.T) {
	out, err := NewXLSXExporter().Render(sample(), "Timesheet")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Timesheet")
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, "Trainee: Ana Cruz", rows[0][0])
	assert.Equal(t, []string{"Date", "Net Hours", "Task"}, rows[3])
	assert.Equal(t, "Stocktake, shelf labels", rows[4][2])
	require.GreaterOrEqual(t, len(rows[5]), 2)
	assert.Equal(t, []string{"2025-03-11", "7.50"}, rows[5][:2])
}
