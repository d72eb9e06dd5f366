package timesheet

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fragranza-olio/ojt-backend/internal/domain/timesheet"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/export"
)

var exportHeaders = []string{
	"Date", "Status", "Work Hours", "Penalty Hours", "Overtime Hours", "Overtime Approved", "Net Hours", "Task",
}

// Export implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) Export(ctx context.Context, id string, format timesheet.ExportFormat) (timesheet.ExportFile, error) {
	if !format.Valid() {
		return timesheet.ExportFile{}, timesheet.ErrUnsupportedExportFormat
	}

	ts, err := s.load(ctx, id)
	if err != nil {
		return timesheet.ExportFile{}, err
	}

	trainee := ts.TraineeID
	if ts.TraineeName != nil {
		trainee = *ts.TraineeName
	} else if u, err := s.users.GetByID(ctx, ts.TraineeID); err == nil {
		trainee = u.FullName
	}

	data := timesheetDataset(ts, trainee)
	week := ts.WeekStart.Format(dateLayout)
	file := timesheet.ExportFile{Filename: fmt.Sprintf("timesheet-%s-%s.%s", ts.TraineeID, week, format)}

	switch format {
	case timesheet.ExportCSV:
		file.ContentType = "text/csv"
		file.Content, err = export.NewCSVExporter().Render(data)
	case timesheet.ExportPDF:
		file.ContentType = "application/pdf"
		file.Content, err = export.NewPDFExporter().Render(data, "Weekly Timesheet")
	case timesheet.ExportXLSX:
		file.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		file.Content, err = export.NewXLSXExporter().Render(data, "Timesheet")
	}
	if err != nil {
		return timesheet.ExportFile{}, fmt.Errorf("failed to render %s export: %w", format, err)
	}
	return file, nil
}

func timesheetDataset(ts timesheet.Timesheet, trainee string) export.Dataset {
	data := export.Dataset{
		Headers: exportHeaders,
		Notes: []string{
			"Trainee: " + trainee,
			fmt.Sprintf("Week: %s to %s", ts.WeekStart.Format(dateLayout), ts.WeekEnd.Format(dateLayout)),
			"Status: " + string(ts.Status),
			"Total Hours: " + hours(ts.TotalHours),
		},
	}
	if ts.Summary != nil {
		data.Notes = append(data.Notes, "Summary: "+*ts.Summary)
	}

	for _, e := range ts.Entries {
		task := ""
		if e.TaskDescription != nil {
			task = *e.TaskDescription
		}
		data.Rows = append(data.Rows, map[string]string{
			"Date":              e.Date.Format(dateLayout),
			"Status":            string(e.Status),
			"Work Hours":        hours(e.WorkHours),
			"Penalty Hours":     hours(e.PenaltyHours),
			"Overtime Hours":    hours(e.OvertimeHours),
			"Overtime Approved": strconv.FormatBool(e.OvertimeApproved),
			"Net Hours":         hours(e.NetHours),
			"Task":              task,
		})
	}
	return data
}

func hours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}
