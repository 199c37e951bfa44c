// Package export renders a course's assessment bank as an XLSX workbook: a summary sheet
// followed by one sheet of questions per topic.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-studio/internal/curriculum"
)

// SummarySheet is the name of the first sheet.
const SummarySheet = "Course"

const maxSheetName = 31

// QuestionHeader is the header row of every topic sheet.
var QuestionHeader = []string{"ID", "Type", "Question", "Options", "Correct Answer", "Starter Code", "Test Cases", "Hidden Tests", "Complete"}

// CourseWorkbook builds the workbook for c. The caller owns the returned file.
func CourseWorkbook(c curriculum.Course) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("naming summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating body style: %w", err)
	}

	if err := writeSummary(f, c, bold); err != nil {
		f.Close()
		return nil, err
	}

	used := map[string]bool{strings.ToLower(SummarySheet): true}
	for i, t := range c.Topics {
		name := sheetName(t.Title, i+1, used)
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("adding sheet for topic %s: %w", t.ID, err)
		}
		if err := writeTopic(f, name, t, bold, wrap); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteCourse writes the XLSX workbook for c to w.
func WriteCourse(w io.Writer, c curriculum.Course) error {
	f, err := CourseWorkbook(c)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, c curriculum.Course, header int) error {
	questions := 0
	for _, t := range c.Topics {
		questions += len(t.Questions)
	}
	rows := [][]any{
		{"Title", c.Title},
		{"Description", c.Description},
		{"Level", string(c.Level)},
		{"Duration", c.Duration},
		{"Lessons", c.Lessons},
		{"Tags", strings.Join(c.Tags, ", ")},
		{"Locked", yesNo(c.IsLocked)},
		{"Topics", len(c.Topics)},
		{"Questions", questions},
		{"Version", c.Version},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i+1, err)
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", fmt.Sprintf("A%d", len(rows)), header); err != nil {
		return err
	}
	return f.SetColWidth(SummarySheet, "A", "A", 14)
}

func writeTopic(f *excelize.File, sheet string, t curriculum.Topic, header, body int) error {
	head := make([]any, len(QuestionHeader))
	for i, h := range QuestionHeader {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("writing header of %s: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, header); err != nil {
		return err
	}

	for i, q := range t.Questions {
		row := questionRow(q)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing question %s: %w", q.ID, err)
		}
	}
	if len(t.Questions) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(QuestionHeader), len(t.Questions)+1)
		if err := f.SetCellStyle(sheet, "A2", last, body); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "C", "G", 36); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func questionRow(q curriculum.Question) []any {
	row := []any{q.ID, string(q.Type()), q.Text, "", "", "", "", 0, yesNo(curriculum.IsComplete(q))}
	switch b := q.Body.(type) {
	case curriculum.MultipleChoice:
		row[3] = strings.Join(b.Options, "\n")
		row[4] = b.CorrectAnswer
	case curriculum.Coding:
		row[5] = b.StarterCode
		cases := make([]string, len(b.TestCases))
		hidden := 0
		for i, tc := range b.TestCases {
			cases[i] = tc.Input + " => " + tc.ExpectedOutput
			if tc.Hidden {
				cases[i] += " (hidden)"
				hidden++
			}
		}
		row[6] = strings.Join(cases, "\n")
		row[7] = hidden
	}
	return row
}

// sheetName turns a topic title into a unique, valid sheet name.
func sheetName(title string, n int, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return ' '
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Topic " + strconv.Itoa(n)
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	base := name
	for i := 2; used[strings.ToLower(name)]; i++ {
		suffix := " (" + strconv.Itoa(i) + ")"
		r := []rune(base)
		if len(r)+len(suffix) > maxSheetName {
			r = r[:maxSheetName-len(suffix)]
		}
		name = string(r) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
