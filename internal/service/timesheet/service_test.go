package timesheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragranza-olio/ojt-backend/internal/domain/attendance"
	"github.com/fragranza-olio/ojt-backend/internal/domain/notification"
	"github.com/fragranza-olio/ojt-backend/internal/domain/timesheet"
	"github.com/fragranza-olio/ojt-backend/internal/domain/user"
)

var (
	monday    = time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	weekStart = "2025-03-10"
)

type fixture struct {
	svc        *TimesheetServiceImpl
	timesheets *memoryTimesheets
	records    *weekRecords
	notifier   *notifierSpy
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sup1, sup2 := "sup-1", "sup-2"
	users := memoryUsers{
		"trainee-1": {ID: "trainee-1", FullName: "Ana Reyes", Role: user.RoleOJTTrainee, SupervisorID: &sup1},
		"trainee-2": {ID: "trainee-2", FullName: "Ben Cruz", Role: user.RoleOJTTrainee, SupervisorID: &sup2},
		"sup-1":     {ID: "sup-1", FullName: "Carla Santos", Role: user.RoleOJTSupervisor},
		"sup-2":     {ID: "sup-2", FullName: "Dan Lim", Role: user.RoleOJTSupervisor},
	}
	records := &weekRecords{records: []attendance.AttendanceRecord{
		{ID: "a1", TraineeID: "trainee-1", Date: monday, Status: attendance.StatusPresent, WorkHours: 8},
		{ID: "a2", TraineeID: "trainee-1", Date: monday.AddDate(0, 0, 1), Status: attendance.StatusLate, WorkHours: 8, PenaltyHours: 0.5},
		{ID: "a3", TraineeID: "trainee-1", Date: monday.AddDate(0, 0, 7), Status: attendance.StatusPresent, WorkHours: 8},
	}}

	f := &fixture{timesheets: newMemoryTimesheets(), records: records, notifier: &notifierSpy{}}
	schedule := attendance.DefaultSchedule()
	// Friday afternoon of the week under test.
	now := time.Date(2025, time.March, 14, 16, 0, 0, 0, schedule.Location)
	f.svc = NewTimesheetService(passthroughTx{}, f.timesheets, records, users, schedule,
		WithClock(func() time.Time { return now }),
		WithNotifier(f.notifier),
	)
	return f
}

func (f *fixture) submit(t *testing.T) timesheet.TimesheetResponse {
	t.Helper()
	resp, err := f.svc.Submit(asUser(t, "trainee-1", user.RoleOJTTrainee), timesheet.SubmitTimesheetRequest{
		WeekStart: weekStart,
		Summary:   "Packed orders and counted stock",
	})
	require.NoError(t, err)
	return resp
}

func TestGetWeek_DraftPreview(t *testing.T) {
	f := newFixture(t)
	ctx := asUser(t, "trainee-1", user.RoleOJTTrainee)

	resp, err := f.svc.GetWeek(ctx, "")

	require.NoError(t, err)
	assert.Empty(t, resp.ID, "preview is not persisted")
	assert.Equal(t, weekStart, resp.WeekStart)
	assert.Equal(t, "2025-03-16", resp.WeekEnd)
	assert.Equal(t, timesheet.StatusDraft, resp.Status)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, 15.5, resp.TotalHours)

	_, err = f.svc.GetWeek(ctx, "2025-03-11")
	assert.ErrorIs(t, err, timesheet.ErrInvalidWeekStart)

	_, err = f.svc.GetWeek(asUser(t, "sup-1", user.RoleOJTSupervisor), weekStart)
	assert.ErrorIs(t, err, user.ErrTraineeAccessRequired)
}

func TestSaveDraft(t *testing.T) {
	f := newFixture(t)
	ctx := asUser(t, "trainee-1", user.RoleOJTTrainee)

	resp, err := f.svc.SaveDraft(ctx, timesheet.SaveDraftRequest{
		WeekStart: weekStart,
		Entries:   []timesheet.DraftEntryRequest{{Date: "2025-03-10", TaskDescription: "Inventory"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)
	require.NotNil(t, resp.Entries[0].TaskDescription)
	assert.Equal(t, "Inventory", *resp.Entries[0].TaskDescription)

	resp, err = f.svc.SaveDraft(ctx, timesheet.SaveDraftRequest{
		WeekStart: weekStart,
		Entries:   []timesheet.DraftEntryRequest{{Date: "2025-03-11", TaskDescription: "Deliveries"}},
	})
	require.NoError(t, err)
	stored, err := f.timesheets.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	require.Len(t, stored.Entries, 2)
	assert.Equal(t, "Inventory", *stored.Entries[0].TaskDescription, "earlier tasks survive")
	assert.Equal(t, "Deliveries", *stored.Entries[1].TaskDescription)

	_, err = f.svc.SaveDraft(ctx, timesheet.SaveDraftRequest{
		WeekStart: weekStart,
		Entries:   []timesheet.DraftEntryRequest{{Date: "2025-03-12", TaskDescription: "x"}},
	})
	assert.ErrorIs(t, err, timesheet.ErrEntryNotFound)
}

func TestSubmit(t *testing.T) {
	f := newFixture(t)

	resp := f.submit(t)

	assert.Equal(t, timesheet.StatusSubmitted, resp.Status)
	assert.Equal(t, 15.5, resp.TotalHours)
	require.NotNil(t, resp.SubmittedAt)
	assert.Equal(t, []notification.NotificationType{notification.TypeTimesheetSubmitted}, f.notifier.types())
	assert.Equal(t, "sup-1", f.notifier.sent[0].RecipientID)

	_, err := f.svc.SaveDraft(asUser(t, "trainee-1", user.RoleOJTTrainee), timesheet.SaveDraftRequest{
		WeekStart: weekStart,
		Entries:   []timesheet.DraftEntryRequest{{Date: "2025-03-10", TaskDescription: "late edit"}},
	})
	assert.ErrorIs(t, err, timesheet.ErrTimesheetLocked)

	_, err = f.svc.Submit(asUser(t, "trainee-1", user.RoleOJTTrainee), timesheet.SubmitTimesheetRequest{
		WeekStart: weekStart,
		Summary:   "again",
	})
	assert.ErrorIs(t, err, timesheet.ErrTimesheetAlreadySubmitted)
}

func TestSubmit_EmptyWeek(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(asUser(t, "trainee-2", user.RoleOJTTrainee), timesheet.SubmitTimesheetRequest{
		WeekStart: weekStart,
		Summary:   "Nothing",
	})

	assert.ErrorIs(t, err, timesheet.ErrEmptyTimesheet)
}

func TestApproveAndReject(t *testing.T) {
	f := newFixture(t)
	submitted := f.submit(t)

	_, err := f.svc.Approve(asUser(t, "sup-2", user.RoleOJTSupervisor), submitted.ID)
	assert.ErrorIs(t, err, user.ErrNotYourTrainee)

	_, err = f.svc.Approve(asUser(t, "trainee-1", user.RoleOJTTrainee), submitted.ID)
	assert.ErrorIs(t, err, user.ErrSupervisorAccessRequired)

	_, err = f.svc.Reject(asUser(t, "sup-1", user.RoleOJTSupervisor), timesheet.RejectTimesheetRequest{ID: submitted.ID})
	require.Error(t, err, "reason is required")

	rejected, err := f.svc.Reject(asUser(t, "sup-1", user.RoleOJTSupervisor), timesheet.RejectTimesheetRequest{
		ID:     submitted.ID,
		Reason: "Add task details",
	})
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusRejected, rejected.Status)
	assert.Equal(t, "Add task details", *rejected.RejectionReason)

	resubmitted := f.submit(t)
	assert.Equal(t, submitted.ID, resubmitted.ID)
	assert.Nil(t, resubmitted.RejectionReason)

	approved, err := f.svc.Approve(asUser(t, "admin-1", user.RoleAdmin), submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusApproved, approved.Status)
	assert.Equal(t, "admin-1", *approved.ReviewedBy)

	_, err = f.svc.Reject(asUser(t, "sup-1", user.RoleOJTSupervisor), timesheet.RejectTimesheetRequest{
		ID:     submitted.ID,
		Reason: "too late",
	})
	assert.ErrorIs(t, err, timesheet.ErrTimesheetAlreadyApproved)

	assert.Equal(t, []notification.NotificationType{
		notification.TypeTimesheetSubmitted,
		notification.TypeTimesheetRejected,
		notification.TypeTimesheetSubmitted,
		notification.TypeTimesheetApproved,
	}, f.notifier.types())
}

func TestApprove_CountsOvertimeApprovedDuringReview(t *testing.T) {
	f := newFixture(t)
	f.records.records[0].OvertimeHours = 1

	submitted := f.submit(t)
	assert.Equal(t, 15.5, submitted.TotalHours)

	f.records.records[0].OvertimeApproved = true

	approved, err := f.svc.Approve(asUser(t, "sup-1", user.RoleOJTSupervisor), submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, 16.5, approved.TotalHours)
	require.Len(t, approved.Entries, 2)
	assert.True(t, approved.Entries[0].OvertimeApproved)
	assert.Equal(t, 9.0, approved.Entries[0].NetHours)

	stored, err := f.timesheets.GetByID(context.Background(), submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, 16.5, stored.TotalHours)
	assert.Equal(t, "Packed orders and counted stock", *stored.Summary)
}

func TestGetAndList_ScopedByRole(t *testing.T) {
	f := newFixture(t)
	submitted := f.submit(t)

	_, err := f.svc.Get(asUser(t, "trainee-2", user.RoleOJTTrainee), submitted.ID)
	assert.ErrorIs(t, err, timesheet.ErrTimesheetNotFound)

	_, err = f.svc.Get(asUser(t, "sup-2", user.RoleOJTSupervisor), submitted.ID)
	assert.ErrorIs(t, err, user.ErrNotYourTrainee)

	got, err := f.svc.Get(asUser(t, "sup-1", user.RoleOJTSupervisor), submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, submitted.ID, got.ID)

	mine, err := f.svc.List(asUser(t, "trainee-2", user.RoleOJTTrainee), timesheet.TimesheetFilter{TraineeID: "trainee-1"})
	require.NoError(t, err)
	assert.Empty(t, mine, "trainees only see their own timesheets")

	all, err := f.svc.List(asUser(t, "admin-1", user.RoleAdmin), timesheet.TimesheetFilter{Status: "submitted"})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = f.svc.List(asUser(t, "cust-1", user.RoleCustomer), timesheet.TimesheetFilter{})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	submitted := f.submit(t)
	ctx := asUser(t, "sup-1", user.RoleOJTSupervisor)

	file, err := f.svc.Export(ctx, submitted.ID, timesheet.ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "timesheet-trainee-1-2025-03-10.csv", file.Filename)

	rows, err := csv.NewReader(bytes.NewReader(file.Content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, []string{"2025-03-11", "late", "8.00", "0.50", "0.00", "false", "7.50", ""}, rows[2])

	for _, format := range []timesheet.ExportFormat{timesheet.ExportPDF, timesheet.ExportXLSX} {
		file, err := f.svc.Export(ctx, submitted.ID, format)
		require.NoError(t, err, format)
		assert.NotEmpty(t, file.Content, format)
	}

	_, err = f.svc.Export(ctx, submitted.ID, "docx")
	assert.ErrorIs(t, err, timesheet.ErrUnsupportedExportFormat)
}
