package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestTable_Render(t *testing.T) {
	color.NoColor = true

	tbl := NewTable([]string{"ID", "STATUS"})
	tbl.AddRow([]string{"oct-2026", "draft"})
	tbl.AddRow([]string{"b", "submitted"})

	var buf bytes.Buffer
	tbl.Render(&buf)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"ID        STATUS     ",
		"--------  ---------  ",
		"oct-2026  draft      ",
		"b         submitted  ",
	}, lines)
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, PrintJSON(&buf, map[string]int{"count": 2}))
	assert.Equal(t, "{\n  \"count\": 2\n}\n", buf.String())
}
