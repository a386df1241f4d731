package workorders

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/models"
)

// fakeLookups serves the seeded reference data in memory.
type fakeLookups struct{}

var fakeStatuses = map[string]string{
	"Open": "Open", "Scheduled": "Scheduled", "Completed": "Completed",
	"Trouble": "Trouble", "Hold": "Hold", "Canceled": "Canceled",
}

func (fakeLookups) Status(_ context.Context, value string) (*models.Lookup, error) {
	if label, ok := fakeStatuses[value]; ok {
		return &models.Lookup{Code: value, Label: label}, nil
	}
	return nil, nil
}

func (f fakeLookups) StatusByLabel(ctx context.Context, label string) (*models.Lookup, error) {
	return f.Status(ctx, label)
}

func (fakeLookups) ServiceType(_ context.Context, value string) (*models.Lookup, error) {
	if value == "Water" || value == "water" {
		return &models.Lookup{Code: "Water", Label: "Water"}, nil
	}
	return nil, nil
}

func (fakeLookups) TroubleCode(_ context.Context, value string) (*models.Lookup, error) {
	if value == "T1" {
		return &models.Lookup{Code: "T1", Label: "Leak"}, nil
	}
	return nil, nil
}

func (fakeLookups) MeterType(_ context.Context, value string) (*models.Lookup, error) {
	if value == "NEP-5G" {
		return &models.Lookup{Code: "NEP-5G", Label: "Neptune 5/8 gen"}, nil
	}
	return nil, nil
}

func (fakeLookups) UserID(_ context.Context, identifier string) (int, bool, error) {
	if identifier == "jsmith" {
		return 7, true, nil
	}
	return 0, false, nil
}

func (fakeLookups) GroupName(_ context.Context, value string) (string, bool, error) {
	switch value {
	case "3", "North Crew":
		return "North Crew", true, nil
	}
	return "", false, nil
}

func strp(s string) *string { return &s }

func woWith(status, trouble string) *models.WorkOrder {
	wo := &models.WorkOrder{ID: 1}
	if status != "" {
		wo.Status = &status
	}
	if trouble != "" {
		wo.Trouble = &trouble
	}
	return wo
}

func TestDeriveSchedulingSetsStatusAndNote(t *testing.T) {
	at := time.Date(2025, 3, 14, 15, 4, 0, 0, time.UTC)
	p := &models.WorkOrderPatch{ScheduledAt: models.SomeTime(at)}

	cs, err := derive(context.Background(), fakeLookups{}, woWith("Open", ""), p, "jsmith", time.Now())
	require.NoError(t, err)

	status, ok := cs.get("status")
	require.True(t, ok)
	assert.Equal(t, "Scheduled", status)

	got, ok := cs.get("scheduled_at")
	require.True(t, ok)
	assert.Equal(t, at, got)

	scheduledBy, ok := cs.get("scheduled_by")
	require.True(t, ok)
	assert.Equal(t, 7, scheduledBy)

	notes := cs.noteText(nil)
	assert.Equal(t, "Scheduled at Mar 14, 2025 3:04 PM by jsmith", notes)
}

func TestDeriveSchedulingWinsOverExplicitStatus(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	p := &models.WorkOrderPatch{
		ScheduledAt: models.SomeTime(at),
		Status:      strp("Hold"),
	}

	cs, err := derive(context.Background(), fakeLookups{}, woWith("Open", ""), p, "", time.Now())
	require.NoError(t, err)

	status, _ := cs.get("status")
	assert.Equal(t, "Scheduled", status)
}

func TestDeriveUnknownActorStillAppearsInNote(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	p := &models.WorkOrderPatch{ScheduledAt: models.SomeTime(at)}

	cs, err := derive(context.Background(), fakeLookups{}, nil, p, "ghost", time.Now())
	require.NoError(t, err)

	scheduledBy, ok := cs.get("scheduled_by")
	require.True(t, ok)
	assert.Nil(t, scheduledBy)
	assert.Contains(t, cs.noteText(nil), "by ghost")
}

func TestDeriveClearingScheduleRevertsToOpen(t *testing.T) {
	p := &models.WorkOrderPatch{ScheduledAt: models.OptionalTime{Set: true}}

	cs, err := derive(context.Background(), fakeLookups{}, woWith("Scheduled", ""), p, "", time.Now())
	require.NoError(t, err)

	status, ok := cs.get("status")
	require.True(t, ok)
	assert.Equal(t, "Open", status)

	at, ok := cs.get("scheduled_at")
	require.True(t, ok)
	assert.Nil(t, at)
}

func TestDeriveClearingScheduleKeepsNonScheduledStatus(t *testing.T) {
	p := &models.WorkOrderPatch{ScheduledAt: models.OptionalTime{Set: true}}

	cs, err := derive(context.Background(), fakeLookups{}, woWith("Completed", ""), p, "", time.Now())
	require.NoError(t, err)

	_, ok := cs.get("status")
	assert.False(t, ok, "a Completed order must stay Completed when its stale schedule is cleared")
}

func TestDeriveClearingScheduleWithExplicitStatus(t *testing.T) {
	p := &models.WorkOrderPatch{
		ScheduledAt: models.OptionalTime{Set: true},
		Status:      strp("Hold"),
	}

	cs, err := derive(context.Background(), fakeLookups{}, woWith("Scheduled", ""), p, "", time.Now())
	require.NoError(t, err)

	status, _ := cs.get("status")
	assert.Equal(t, "Hold", status)
}

func TestDeriveTroubleSetsStatusAndNote(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	p := &models.WorkOrderPatch{Trouble: models.SomeString("T1")}

	cs, err := derive(context.Background(), fakeLookups{}, woWith("Open", ""), p, "", now)
	require.NoError(t, err)

	status, _ := cs.get("status")
	assert.Equal(t, "Trouble", status)

	trouble, _ := cs.get("trouble")
	assert.Equal(t, "T1", trouble)

	assert.Equal(t, "Trouble Code: T1 - Leak - Jun 1, 2025 10:30 AM", cs.noteText(nil))
}

func TestDeriveTroubleUnchangedAddsNoNote(t *testing.T) {
	p := &models.WorkOrderPatch{Trouble: models.SomeString("T1")}

	cs, err := derive(context.Background(), fakeLookups{}, woWith("Trouble", "T1"), p, "", time.Now())
	require.NoError(t, err)

	_, ok := cs.get("status")
	assert.False(t, ok)
	assert.Empty(t, cs.noteLines)
}

func TestDeriveUnknownTroubleCodeFallsBackToRaw(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	p := &models.WorkOrderPatch{Trouble: models.SomeString("T99")}

	cs, err := derive(context.Background(), fakeLookups{}, nil, p, "", now)
	require.NoError(t, err)

	assert.Equal(t, "Trouble Code: T99 - Jun 1, 2025 10:30 AM", cs.noteText(nil))
}

func TestDeriveCompletedSetsCompletionFields(t *testing.T) {
	now := time.Date(2025, 7, 2, 16, 45, 0, 0, time.UTC)
	p := &models.WorkOrderPatch{Status: strp("Completed")}

	cs, err := derive(context.Background(), fakeLookups{}, woWith("Scheduled", ""), p, "jsmith", now)
	require.NoError(t, err)

	status, _ := cs.get("status")
	assert.Equal(t, "Completed", status)

	completedAt, ok := cs.get("completed_at")
	require.True(t, ok)
	assert.Equal(t, now, completedAt)

	completedBy, _ := cs.get("completed_by")
	assert.Equal(t, 7, completedBy)

	// Completing also clears any schedule slot left behind.
	at, ok := cs.get("scheduled_at")
	require.True(t, ok)
	assert.Nil(t, at)

	assert.Contains(t, cs.noteText(nil), "Completed at Jul 2, 2025 4:45 PM by jsmith")
}

func TestDeriveExplicitStatusClearsScheduleUnlessScheduled(t *testing.T) {
	p := &models.WorkOrderPatch{Status: strp("Canceled")}

	cs, err := derive(context.Background(), fakeLookups{}, woWith("Scheduled", ""), p, "", time.Now())
	require.NoError(t, err)

	at, ok := cs.get("scheduled_at")
	require.True(t, ok)
	assert.Nil(t, at)
}

func TestDeriveExplicitScheduledWithoutTimeRejected(t *testing.T) {
	p := &models.WorkOrderPatch{Status: strp("Scheduled")}

	_, err := derive(context.Background(), fakeLookups{}, nil, p, "", time.Now())
	require.ErrorIs(t, err, ErrScheduledWithoutTime)

	_, err = derive(context.Background(), fakeLookups{}, woWith("Open", ""), p, "", time.Now())
	require.ErrorIs(t, err, ErrScheduledWithoutTime)
}

func TestDeriveExplicitScheduledKeepsExistingTime(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	prev := woWith("Hold", "")
	prev.ScheduledAt = &at
	p := &models.WorkOrderPatch{Status: strp("Scheduled")}

	cs, err := derive(context.Background(), fakeLookups{}, prev, p, "", time.Now())
	require.NoError(t, err)

	status, _ := cs.get("status")
	assert.Equal(t, "Scheduled", status)

	// The stored slot stays untouched.
	_, ok := cs.get("scheduled_at")
	assert.False(t, ok)
}

func TestDeriveClearingScheduleRejectsExplicitScheduled(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	prev := woWith("Scheduled", "")
	prev.ScheduledAt = &at
	p := &models.WorkOrderPatch{
		ScheduledAt: models.OptionalTime{Set: true},
		Status:      strp("Scheduled"),
	}

	_, err := derive(context.Background(), fakeLookups{}, prev, p, "", time.Now())
	require.ErrorIs(t, err, ErrScheduledWithoutTime)
}

func TestDeriveGroupResolvesIdToName(t *testing.T) {
	p := &models.WorkOrderPatch{AssignedGroupID: strp("3")}

	cs, err := derive(context.Background(), fakeLookups{}, nil, p, "", time.Now())
	require.NoError(t, err)

	group, ok := cs.get("assigned_group_id")
	require.True(t, ok)
	assert.Equal(t, "North Crew", group)
}

func TestDeriveUnresolvedGroupSkipsAssignment(t *testing.T) {
	p := &models.WorkOrderPatch{AssignedGroupID: strp("Ghost Crew")}

	cs, err := derive(context.Background(), fakeLookups{}, nil, p, "", time.Now())
	require.NoError(t, err)

	_, ok := cs.get("assigned_group_id")
	assert.False(t, ok)
}

func TestDeriveMeterTypeRawPassthrough(t *testing.T) {
	p := &models.WorkOrderPatch{
		OldMeterType: strp("NEP-5G"),
		NewMeterType: strp("UNKNOWN-9"),
	}

	cs, err := derive(context.Background(), fakeLookups{}, nil, p, "", time.Now())
	require.NoError(t, err)

	oldType, _ := cs.get("old_meter_type")
	assert.Equal(t, "NEP-5G", oldType)

	// A value that misses the catalog passes through raw; the foreign key
	// is the authoritative failure.
	newType, _ := cs.get("new_meter_type")
	assert.Equal(t, "UNKNOWN-9", newType)
}

func TestDeriveClearingTrouble(t *testing.T) {
	p := &models.WorkOrderPatch{Trouble: models.SomeString("")}

	cs, err := derive(context.Background(), fakeLookups{}, woWith("Trouble", "T1"), p, "", time.Now())
	require.NoError(t, err)

	trouble, ok := cs.get("trouble")
	require.True(t, ok)
	assert.Nil(t, trouble)

	// Clearing a trouble code is not a trouble transition.
	_, ok = cs.get("status")
	assert.False(t, ok)
}

func TestDeriveNoteJoinsUserNotesAndAuditLines(t *testing.T) {
	at := time.Date(2025, 3, 14, 15, 4, 0, 0, time.UTC)
	p := &models.WorkOrderPatch{
		ScheduledAt: models.SomeTime(at),
		Notes:       strp("customer prefers mornings"),
	}

	cs, err := derive(context.Background(), fakeLookups{}, nil, p, "", time.Now())
	require.NoError(t, err)

	lines := strings.Split(cs.noteText(p.Notes), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "customer prefers mornings", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Scheduled at "))
}
