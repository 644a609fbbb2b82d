package db

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"school-registry-go/models"
)

// Sheet names used for workbook import and export
const (
	SheetSubjects  = "Subjects"
	SheetTeachers  = "Teachers"
	SheetClasses   = "Classes"
	SheetSchedules = "Schedules"
)

// ErrNoKnownSheets is returned when a workbook has none of the expected sheets
var ErrNoKnownSheets = errors.New("workbook contains no Subjects, Teachers, Classes or Schedules sheet")

// ImportReport counts the rows an import created and skipped, per sheet
type ImportReport struct {
	Subjects  int `json:"subjects"`
	Teachers  int `json:"teachers"`
	Classes   int `json:"classes"`
	Schedules int `json:"schedules"`
	Skipped   int `json:"skipped"`
}

// Total is the number of entities created
func (r ImportReport) Total() int {
	return r.Subjects + r.Teachers + r.Classes + r.Schedules
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func parseID(raw string) (uint32, error) {
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

func parseIDList(raw string) ([]models.SubjectID, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []models.SubjectID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := parseID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, models.SubjectID(n))
	}
	return ids, nil
}

// ImportWorkbook reads an xlsx stream and adds its rows to school with freshly
// issued ids. Sheets are processed as Subjects, Teachers, Classes, Schedules;
// the first row of each sheet is a header. Reference columns (SubjectID,
// SubjectIDs, ClassID) are taken as ids already valid in school and are not checked.
func ImportWorkbook(r io.Reader, school *models.School, logger *slog.Logger) (ImportReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var report ImportReport

	f, err := excelize.OpenReader(r)
	if err != nil {
		return report, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("close excel file", "error", err)
		}
	}()

	present := map[string]bool{}
	for _, name := range f.GetSheetList() {
		present[name] = true
	}

	// readRows drops the header row. Exported workbooks carry a leading ID
	// column; when the header starts with "ID" the data columns shift right by one.
	readRows := func(sheet string) ([][]string, int, error) {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to get rows from sheet %s: %w", sheet, err)
		}
		if len(rows) == 0 {
			return nil, 0, nil
		}
		offset := 0
		if strings.EqualFold(cell(rows[0], 0), "ID") {
			offset = 1
		}
		return rows[1:], offset, nil
	}
	skip := func(sheet string, line int, reason string) {
		report.Skipped++
		logger.Info("skipping row", "sheet", sheet, "row", line, "reason", reason)
	}

	found := false

	if present[SheetSubjects] {
		found = true
		rows, off, err := readRows(SheetSubjects)
		if err != nil {
			return report, err
		}
		for i, row := range rows {
			name := cell(row, off)
			if name == "" {
				skip(SheetSubjects, i+2, "missing name")
				continue
			}
			school.AddSubject(models.NewSubject(school.NextSubjectID(), name))
			report.Subjects++
		}
	}

	if present[SheetTeachers] {
		found = true
		rows, off, err := readRows(SheetTeachers)
		if err != nil {
			return report, err
		}
		for i, row := range rows {
			name := cell(row, off)
			subjectID, perr := parseID(cell(row, off+1))
			if name == "" || perr != nil {
				skip(SheetTeachers, i+2, "missing name or bad subject id")
				continue
			}
			school.AddTeacher(models.NewTeacher(school.NextTeacherID(), name, models.SubjectID(subjectID)))
			report.Teachers++
		}
	}

	if present[SheetClasses] {
		found = true
		rows, off, err := readRows(SheetClasses)
		if err != nil {
			return report, err
		}
		for i, row := range rows {
			name := cell(row, off)
			subjects, perr := parseIDList(cell(row, off+2))
			if name == "" || perr != nil {
				skip(SheetClasses, i+2, "missing name or bad subject ids")
				continue
			}
			c := models.NewClass(school.NextClassID(), name, cell(row, off+1))
			c.AddSubjects(subjects...)
			school.AddClass(c)
			report.Classes++
		}
	}

	if present[SheetSchedules] {
		found = true
		rows, off, err := readRows(SheetSchedules)
		if err != nil {
			return report, err
		}
		for i, row := range rows {
			name := cell(row, off)
			classID, perr := parseID(cell(row, off+1))
			if name == "" || perr != nil {
				skip(SheetSchedules, i+2, "missing name or bad class id")
				continue
			}
			school.AddSchedule(models.NewSchedule(school.NextScheduleID(), name, models.ClassID(classID)))
			report.Schedules++
		}
	}

	if !found {
		return report, ErrNoKnownSheets
	}
	logger.Info("workbook imported", "created", report.Total(), "skipped", report.Skipped)
	return report, nil
}

func joinIDs(ids []models.SubjectID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	return strings.Join(parts, ",")
}

// ExportWorkbook writes snap as an xlsx workbook with one sheet per entity
// kind. Each sheet has a leading ID column followed by the import columns.
func ExportWorkbook(w io.Writer, snap models.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := []struct {
		name   string
		header []interface{}
		rows   [][]interface{}
	}{
		{name: SheetSubjects, header: []interface{}{"ID", "Name"}},
		{name: SheetTeachers, header: []interface{}{"ID", "Name", "SubjectID"}},
		{name: SheetClasses, header: []interface{}{"ID", "Name", "Description", "SubjectIDs"}},
		{name: SheetSchedules, header: []interface{}{"ID", "Name", "ClassID"}},
	}
	for _, s := range snap.Subjects {
		sheets[0].rows = append(sheets[0].rows, []interface{}{uint64(s.ID()), s.Name()})
	}
	for _, t := range snap.Teachers {
		sheets[1].rows = append(sheets[1].rows, []interface{}{uint64(t.ID()), t.Name(), uint64(t.SubjectID())})
	}
	for _, c := range snap.Classes {
		sheets[2].rows = append(sheets[2].rows, []interface{}{uint64(c.ID()), c.Name(), c.Description(), joinIDs(c.SubjectIDs())})
	}
	for _, sc := range snap.Schedules {
		sheets[3].rows = append(sheets[3].rows, []interface{}{uint64(sc.ID()), sc.Name(), uint64(sc.ClassID())})
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet.name, err)
		}
		rows := append([][]interface{}{sheet.header}, sheet.rows...)
		for r, values := range rows {
			axis, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			values := values
			if err := f.SetSheetRow(sheet.name, axis, &values); err != nil {
				return fmt.Errorf("write sheet %s row %d: %w", sheet.name, r+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
