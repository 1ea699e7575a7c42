package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSVHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "Name,Description,Tags,Location,QR Code,Status,Short ID", lines[0])
}

func TestWriteCSVEscaping(t *testing.T) {
	rows := []InventoryRow{
		{
			Name:        `Box, with "quotes"`,
			Description: "line one\nline two",
			Tags:        "tools, fragile",
			Location:    "Garage > Shelf 2",
			QRCode:      "QR-7GK2ZX",
			Status:      "assigned",
			ShortID:     "BX-0F3QAB",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	out := buf.String()
	// Embedded quotes double, the whole field gets quoted
	assert.Contains(t, out, `"Box, with ""quotes"""`)
	// Embedded newline keeps the field quoted rather than split
	assert.Contains(t, out, "\"line one\nline two\"")
	assert.Contains(t, out, "QR-7GK2ZX")
}

func TestWriteCSVRowOrder(t *testing.T) {
	rows := []InventoryRow{
		{Name: "Alpha", ShortID: "BX-AAAAAA"},
		{Name: "Beta", ShortID: "BX-BBBBBB"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "Alpha,"))
	assert.True(t, strings.HasPrefix(lines[2], "Beta,"))
}

func TestWriteJSON(t *testing.T) {
	rows := []InventoryRow{
		{Name: "Power Tools", Tags: "tools,electric", Location: "Garage > Shelf 1", ShortID: "BX-0F3QAB"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rows))

	var decoded []InventoryRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, rows[0], decoded[0])
}
