package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()

	payload, err := exporter.Render(Dataset{
		Headers: []string{"Subject", "Total"},
		Rows: [][]string{
			{"Math", "4"},
			{"History"},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Subject,Total", lines[0])
	assert.Equal(t, "Math,4", lines[1])
	assert.Equal(t, "History,", lines[2], "short rows are padded")
}

func TestCSVExporterRejectsOversizedRow(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{
		Headers: []string{"Subject"},
		Rows:    [][]string{{"Math", "extra"}},
	})
	require.Error(t, err)
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()

	payload, err := exporter.Render(Dataset{
		Headers: []string{"Subject", "Total"},
		Rows:    [][]string{{"Math", "4"}},
	}, "Attendance Report")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}
