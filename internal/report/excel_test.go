package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExcelRender(t *testing.T) {
	dir := t.TempDir()
	r := NewExcelRenderer(dir)

	path, err := r.Render(testResult(), testStats(), []string{"nmap -sV 192.168.1.0/24"}, AllTables)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".xlsx"))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, sheetSummary)
	assert.Contains(t, sheets, sheetTable1)
	assert.Contains(t, sheets, sheetTable2)
	assert.Contains(t, sheets, sheetTable3)
	assert.Contains(t, sheets, sheetTable4)
	assert.Contains(t, sheets, sheetCommands)
	assert.Contains(t, sheets, sheetSubnets)
	assert.Contains(t, sheets, sheetRawData)
	assert.NotContains(t, sheets, defaultSheet)
}

func TestExcelSummarySheet(t *testing.T) {
	dir := t.TempDir()
	path, err := NewExcelRenderer(dir).Render(testResult(), testStats(), nil, AllTables)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(sheetSummary, "A1")
	require.NoError(t, err)
	assert.Equal(t, "NmapFusion - Network Assessment Summary", title)

	files, err := f.GetCellValue(sheetSummary, "B4")
	require.NoError(t, err)
	assert.Equal(t, "3", files)
}

func TestExcelHostSummaryRows(t *testing.T) {
	dir := t.TempDir()
	path, err := NewExcelRenderer(dir).Render(testResult(), testStats(), nil, AllTables)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetTable1)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "IP Address", rows[0][0])
	assert.Equal(t, "192.168.1.10", rows[1][0])
	assert.Equal(t, "web1.corp", rows[1][1])
	assert.Equal(t, "CRITICAL", rows[1][7])
}

func TestExcelDetailSheetOnePortPerRow(t *testing.T) {
	dir := t.TempDir()
	path, err := NewExcelRenderer(dir).Render(testResult(), testStats(), nil, AllTables)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetTable2)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, "192.168.1.10", row[0])
	assert.Equal(t, "80", row[3])
	assert.Equal(t, "http", row[5])
	assert.Equal(t, "Apache httpd 2.4.49", row[6])
	assert.Equal(t, "Web", row[9])
}

func TestExcelSelectedTablesOnly(t *testing.T) {
	dir := t.TempDir()
	path, err := NewExcelRenderer(dir).Render(testResult(), testStats(), nil, []string{TableFrequency})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, sheetTable3)
	assert.NotContains(t, sheets, sheetTable1)
	assert.NotContains(t, sheets, sheetTable4)

	// The supporting sheets are always present.
	assert.Contains(t, sheets, sheetSummary)
	assert.Contains(t, sheets, sheetRawData)
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Remote Access", titleCase("remote_access"))
	assert.Equal(t, "Web", titleCase("web"))
	assert.Equal(t, "Other", titleCase(""))
}
