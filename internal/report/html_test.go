package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLRender(t *testing.T) {
	dir := t.TempDir()
	r := NewHTMLRenderer(dir)

	path, err := r.Render(testResult(), testStats(), []string{"nmap -sV 192.168.1.0/24"}, AllTables)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "nmapfusion_report_"))
	assert.True(t, strings.HasSuffix(path, ".html"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "<title>NmapFusion Report</title>")
	assert.Contains(t, html, "nmap -sV 192.168.1.0/24")
	assert.Contains(t, html, "Table 1: Host Summary Overview")
	assert.Contains(t, html, "Table 4: Service Exposure Matrix")
	assert.Contains(t, html, "192.168.1.10")
	assert.Contains(t, html, "CVE-2021-41773")
	assert.Contains(t, html, "risk-critical")
	assert.Contains(t, html, "192.168.1.0/24")
}

func TestHTMLRenderSelectedTables(t *testing.T) {
	dir := t.TempDir()
	r := NewHTMLRenderer(dir)

	path, err := r.Render(testResult(), testStats(), nil, []string{TableSummary})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "Table 1: Host Summary Overview")
	assert.NotContains(t, html, "Table 2: Host Detailed Analysis")
	assert.NotContains(t, html, "Table 3: Port Frequency Distribution")
}

func TestHTMLRenderEscapesContent(t *testing.T) {
	dir := t.TempDir()
	r := NewHTMLRenderer(dir)

	result := testResult()
	result.Table1[0].Hostname = `<script>alert("x")</script>`

	path, err := r.Render(result, testStats(), nil, []string{TableSummary})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.NotContains(t, string(data), `<script>alert`)
}

func TestHTMLRenderCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "html")
	r := NewHTMLRenderer(dir)

	_, err := r.Render(testResult(), testStats(), nil, AllTables)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
