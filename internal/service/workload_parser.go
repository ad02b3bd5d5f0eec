package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/soe-platform/workload-api/internal/dto"
	"github.com/soe-platform/workload-api/internal/schedule"
)

// Cell is one typed CSV cell. The raw spreadsheet sentinels for "no value"
// ("", "nan", "null", "none", any casing) all collapse into the absent state
// so later validation never string-matches on them again.
type Cell struct {
	value   string
	present bool
}

// NewCell parses a raw CSV field into a typed cell.
func NewCell(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "", "nan", "null", "none":
		return Cell{}
	}
	return Cell{value: trimmed, present: true}
}

// Present reports whether the cell carried a real value.
func (c Cell) Present() bool { return c.present }

// Value returns the trimmed cell content, empty when absent.
func (c Cell) Value() string { return c.value }

// ParsedRow is one validated academic-load row in canonical form, ready to
// become a class record. Line is the 1-based CSV line the row came from,
// counting the header as line 1.
type ParsedRow struct {
	Line             int
	SubjectCode      string
	SubjectName      string
	Section          string
	Block            schedule.Block
	ProfessorCode    string
	CoordinationCode string
}

// DayLabel renders the canonical class-days label for the row.
func (r ParsedRow) DayLabel() string {
	return r.Block.DayLabel()
}

var loadFileColumnsRequired = []string{
	"subject_code",
	"subject_name",
	"section",
	"class_days",
	"start_time",
	"end_time",
	"professor_code",
	"coordination_code",
}

// parseLoadFile reads a whole academic-load CSV. It returns the rows that
// parsed cleanly plus one error per rejected row; callers decide whether any
// row error fails the upload.
func parseLoadFile(r io.Reader) ([]ParsedRow, []dto.RowError, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range loadFileColumnsRequired {
		if _, ok := colIdx[required]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", required)
		}
	}

	var rows []ParsedRow
	var rowErrs []dto.RowError
	line := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("read csv row: %w", err)
		}
		line++
		if len(record) == 0 {
			continue
		}

		row, err := parseLoadRow(record, colIdx)
		if err != nil {
			rowErrs = append(rowErrs, dto.RowError{Row: line, Message: err.Error()})
			continue
		}
		row.Line = line
		rows = append(rows, row)
	}

	return rows, rowErrs, nil
}

func parseLoadRow(record []string, colIdx map[string]int) (ParsedRow, error) {
	cell := func(name string) Cell {
		idx, ok := colIdx[name]
		if !ok || idx >= len(record) {
			return Cell{}
		}
		return NewCell(record[idx])
	}

	subjectCode := cell("subject_code")
	if !subjectCode.Present() {
		return ParsedRow{}, errors.New("subject_code is required")
	}
	subjectName := cell("subject_name")
	if !subjectName.Present() {
		return ParsedRow{}, errors.New("subject_name is required")
	}
	section := cell("section")
	if !section.Present() {
		return ParsedRow{}, errors.New("section is required")
	}

	daysCell := cell("class_days")
	if !daysCell.Present() {
		return ParsedRow{}, errors.New("class_days is required")
	}
	days, err := schedule.ParseClassDays(daysCell.Value())
	if err != nil {
		return ParsedRow{}, fmt.Errorf("class_days: %w", err)
	}

	startCell := cell("start_time")
	if !startCell.Present() {
		return ParsedRow{}, errors.New("start_time is required")
	}
	start, err := schedule.ParseTimeOfDay(startCell.Value())
	if err != nil {
		return ParsedRow{}, fmt.Errorf("start_time: %w", err)
	}

	endCell := cell("end_time")
	if !endCell.Present() {
		return ParsedRow{}, errors.New("end_time is required")
	}
	end, err := schedule.ParseTimeOfDay(endCell.Value())
	if err != nil {
		return ParsedRow{}, fmt.Errorf("end_time: %w", err)
	}

	// An end at or before the start marks an overnight or unbounded slot;
	// it is stored as the full-day range.
	start, end = schedule.NormalizeTimeRange(start, end)
	block, err := schedule.NewBlock(days, start, end)
	if err != nil {
		return ParsedRow{}, fmt.Errorf("schedule: %w", err)
	}

	professorCode := cell("professor_code")
	if !professorCode.Present() {
		return ParsedRow{}, errors.New("professor_code is required")
	}
	coordinationCode := cell("coordination_code")
	if !coordinationCode.Present() {
		return ParsedRow{}, errors.New("coordination_code is required")
	}

	return ParsedRow{
		SubjectCode:      strings.ToUpper(subjectCode.Value()),
		SubjectName:      subjectName.Value(),
		Section:          strings.ToUpper(section.Value()),
		Block:            block,
		ProfessorCode:    strings.ToUpper(professorCode.Value()),
		CoordinationCode: strings.ToUpper(coordinationCode.Value()),
	}, nil
}
