package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"

	"github.com/roach88/gwp/internal/contract"
	"github.com/roach88/gwp/internal/report"
	"github.com/roach88/gwp/internal/testutil"
)

func lifecycleReport() Report {
	return Report{
		Range:  testutil.Range("2020-01", "2020-04"),
		Mode:   contract.ModeAll,
		Events: 3,
		Rows: []report.Row{
			{Month: testutil.Month("2020-01"), ActiveContracts: 1, ActualPremium: 100, ExpectedPremium: 300},
			{Month: testutil.Month("2020-02"), ActiveContracts: 1, ActualPremium: 200, ExpectedPremium: 300},
			{Month: testutil.Month("2020-03"), ActiveContracts: 1, ActualPremium: 350, ExpectedPremium: 350},
		},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, lifecycleReport().Rows))

	assert.Equal(t, strings.Join([]string{
		"Report for 2020-01: [contracts=1, AGWP=100, EGWP=300]",
		"Report for 2020-02: [contracts=1, AGWP=200, EGWP=300]",
		"Report for 2020-03: [contracts=1, AGWP=350, EGWP=350]",
		"",
	}, "\n"), buf.String())
}

func TestWriteText_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestWriteTable_GroupsDigits(t *testing.T) {
	rows := []report.Row{
		{Month: testutil.Month("2020-01"), ActiveContracts: 1200, ActualPremium: 1234567, ExpectedPremium: 14814804},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, rows, language.English))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "MONTH")
	assert.Contains(t, lines[0], "EGWP")
	assert.Contains(t, lines[1], "2020-01")
	assert.Contains(t, lines[1], "1,200")
	assert.Contains(t, lines[1], "1,234,567")
	assert.Contains(t, lines[1], "14,814,804")
}

func TestWriteTable_ColumnsAligned(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, lifecycleReport().Rows, language.English))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	for _, line := range lines[1:] {
		assert.Equal(t, len(lines[0]), len(line), "right-aligned rows share the header width")
	}
}

func TestReport_Final(t *testing.T) {
	assert.Equal(t, int64(350), lifecycleReport().Final().ActualPremium)
	assert.Equal(t, report.Row{}, Report{}.Final())
}

func TestBuildXLSX(t *testing.T) {
	data, err := BuildXLSX(lifecycleReport())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, MonthsSheet}, f.GetSheetList())

	cell := func(sheet, axis string) string {
		t.Helper()
		v, err := f.GetCellValue(sheet, axis)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Gross Written Premium Report", cell(SummarySheet, "A1"))
	assert.Equal(t, "[2020-01, 2020-04)", cell(SummarySheet, "B3"))
	assert.Equal(t, "all", cell(SummarySheet, "B4"))
	assert.Equal(t, "350", cell(SummarySheet, "B7"))

	assert.Equal(t, "Month", cell(MonthsSheet, "A1"))
	assert.Equal(t, "2020-03", cell(MonthsSheet, "A4"))
	assert.Equal(t, "1", cell(MonthsSheet, "B4"))
	assert.Equal(t, "350", cell(MonthsSheet, "C4"))
	assert.Equal(t, "300", cell(MonthsSheet, "D2"))
}

func TestBuildPDF(t *testing.T) {
	data, err := BuildPDF(lifecycleReport())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestFileFormatOf(t *testing.T) {
	f, err := FileFormatOf("out/report.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = FileFormatOf("report.pdf")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	_, err = FileFormatOf("report.csv")
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"report.xlsx", "report.pdf"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, lifecycleReport()))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	err := WriteFile(filepath.Join(dir, "report.txt"), lifecycleReport())
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "report.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuild_UnknownFormat(t *testing.T) {
	_, err := Build("docx", lifecycleReport())
	assert.Error(t, err)
}
