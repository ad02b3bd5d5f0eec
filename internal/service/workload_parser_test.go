package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soe-platform/workload-api/internal/schedule"
)

func TestNewCellNormalizesSentinels(t *testing.T) {
	cases := []struct {
		raw     string
		present bool
		value   string
	}{
		{"", false, ""},
		{"   ", false, ""},
		{"nan", false, ""},
		{"NaN", false, ""},
		{"NULL", false, ""},
		{"None", false, ""},
		{" none ", false, ""},
		{"MAT101", true, "MAT101"},
		{"  Cálculo I  ", true, "Cálculo I"},
		{"0", true, "0"},
	}

	for _, tc := range cases {
		cell := NewCell(tc.raw)
		assert.Equal(t, tc.present, cell.Present(), "raw=%q", tc.raw)
		assert.Equal(t, tc.value, cell.Value(), "raw=%q", tc.raw)
	}
}

const loadFileHeader = "subject_code,subject_name,section,class_days,start_time,end_time,professor_code,coordination_code\n"

func TestParseLoadFileSuccess(t *testing.T) {
	csv := loadFileHeader +
		"mat101,Cálculo I,a,Lu-Mi,08:00,09:30,p001,coord-mat\n" +
		"FIS201,Física II,B,Ma,18:00,20:00,P002,COORD-FIS\n"

	rows, rowErrs, err := parseLoadFile(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "MAT101", first.SubjectCode)
	assert.Equal(t, "Cálculo I", first.SubjectName)
	assert.Equal(t, "A", first.Section)
	assert.Equal(t, []schedule.Weekday{schedule.Monday, schedule.Wednesday}, first.Block.Days)
	assert.Equal(t, "Lu-Mi", first.DayLabel())
	assert.Equal(t, "08:00", first.Block.Start.String())
	assert.Equal(t, "09:30", first.Block.End.String())
	assert.Equal(t, 90, first.Block.DurationMinutes())
	assert.Equal(t, "P001", first.ProfessorCode)
	assert.Equal(t, "COORD-MAT", first.CoordinationCode)

	second := rows[1]
	assert.Equal(t, 3, second.Line)
	assert.Equal(t, "FIS201", second.SubjectCode)
	assert.Equal(t, 120, second.Block.DurationMinutes())
}

func TestParseLoadFileNormalizesOvernightRange(t *testing.T) {
	csv := loadFileHeader +
		"MAT101,Cálculo I,A,Lu,22:00,06:00,P001,COORD\n" +
		"MAT102,Cálculo II,A,Lu,10:00,10:00,P001,COORD\n"

	rows, rowErrs, err := parseLoadFile(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, rows, 2)

	for _, row := range rows {
		assert.Equal(t, "00:00", row.Block.Start.String())
		assert.Equal(t, "23:59", row.Block.End.String())
		assert.Equal(t, 1439, row.Block.DurationMinutes())
	}
}

func TestParseLoadFileCollectsRowErrors(t *testing.T) {
	csv := loadFileHeader +
		"MAT101,Cálculo I,A,Lu-Mi,08:00,09:30,P001,COORD\n" +
		"MAT102,Cálculo II,A,Lu,8h30,10:00,P001,COORD\n" +
		"MAT103,Cálculo III,A,Zz,08:00,09:30,P001,COORD\n" +
		"MAT104,Cálculo IV,A,Lu,08:00,09:30,nan,COORD\n"

	rows, rowErrs, err := parseLoadFile(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "MAT101", rows[0].SubjectCode)

	require.Len(t, rowErrs, 3)
	assert.Equal(t, 3, rowErrs[0].Row)
	assert.Contains(t, rowErrs[0].Message, "start_time")
	assert.Equal(t, 4, rowErrs[1].Row)
	assert.Contains(t, rowErrs[1].Message, "class_days")
	assert.Equal(t, 5, rowErrs[2].Row)
	assert.Contains(t, rowErrs[2].Message, "professor_code is required")
}

func TestParseLoadFileTreatsSentinelsAsAbsent(t *testing.T) {
	csv := loadFileHeader +
		"MAT101,null,A,Lu,08:00,09:30,P001,COORD\n"

	rows, rowErrs, err := parseLoadFile(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, rows)
	require.Len(t, rowErrs, 1)
	assert.Equal(t, 2, rowErrs[0].Row)
	assert.Contains(t, rowErrs[0].Message, "subject_name is required")
}

func TestParseLoadFileHeaderCaseInsensitive(t *testing.T) {
	csv := "SUBJECT_CODE,Subject_Name,SECTION,Class_Days,Start_Time,End_Time,Professor_Code,Coordination_Code\n" +
		"MAT101,Cálculo I,A,Lu,08:00,09:30,P001,COORD\n"

	rows, rowErrs, err := parseLoadFile(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, rows, 1)
}

func TestParseLoadFileMissingColumn(t *testing.T) {
	csv := "subject_code,subject_name,section,class_days,start_time,end_time,professor_code\n" +
		"MAT101,Cálculo I,A,Lu,08:00,09:30,P001\n"

	_, _, err := parseLoadFile(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coordination_code")
}
