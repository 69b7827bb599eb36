package export

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timetable() Dataset {
	return Dataset{
		Headers: []string{"Day", "Slot", "Subject"},
		Rows: []map[string]string{
			{"Day": "Mon", "Slot": "08:00-09:00", "Subject": "Algebra, Part I"},
			{"Day": "Tue", "Slot": "09:00-10:00"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(timetable())
	require.NoError(t, err)
	assert.Equal(t, "Day,Slot,Subject\nMon,08:00-09:00,\"Algebra, Part I\"\nTue,09:00-10:00,\n", string(out))
}

func TestCSVExporterOptions(t *testing.T) {
	out, err := NewCSVExporter(WithDelimiter(';'), WithBOM()).Render(timetable())
	require.NoError(t, err)
	assert.Equal(t, "\ufeffDay;Slot;Subject\nMon;08:00-09:00;Algebra, Part I\nTue;09:00-10:00;\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.ErrorIs(t, err, errNoHeaders)
}

func TestDatasetRecordFollowsHeaderOrder(t *testing.T) {
	data := Dataset{Headers: []string{"B", "A"}, Rows: []map[string]string{{"A": "1", "B": "2"}}}
	assert.Equal(t, []string{"2", "1"}, data.Record(0))
}

func TestPDFExporterRender(t *testing.T) {
	data := timetable()
	for i := 0; i < 60; i++ {
		data.Rows = append(data.Rows, map[string]string{"Day": "Wed", "Slot": fmt.Sprintf("slot-%d", i), "Subject": "Physics"})
	}
	out, err := NewPDFExporter().Render(data, "Fall2024 timetable")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Dataset{}, "")
	assert.ErrorIs(t, err, errNoHeaders)
}
