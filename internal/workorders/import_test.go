package workorders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchFromRecordMapsCanonicalFields(t *testing.T) {
	p, err := PatchFromRecord(map[string]string{
		"customerWoId":   "WO-1001",
		"customerName":   "Ada Lovelace",
		"address":        "12 Pump St",
		"serviceType":    "Water",
		"assignedUserId": "7",
		"scheduledAt":    "2025-03-14T15:04:00Z",
		"trouble":        "T1",
	})
	require.NoError(t, err)

	require.NotNil(t, p.CustomerWoID)
	assert.Equal(t, "WO-1001", *p.CustomerWoID)
	require.NotNil(t, p.AssignedUserID)
	assert.Equal(t, 7, *p.AssignedUserID)

	require.True(t, p.ScheduledAt.Set)
	require.NotNil(t, p.ScheduledAt.Value)
	assert.Equal(t, time.Date(2025, 3, 14, 15, 4, 0, 0, time.UTC), p.ScheduledAt.Value.UTC())

	require.True(t, p.Trouble.Set)
	require.NotNil(t, p.Trouble.Value)
	assert.Equal(t, "T1", *p.Trouble.Value)
}

func TestPatchFromRecordRejectsUnknownField(t *testing.T) {
	_, err := PatchFromRecord(map[string]string{"meterSize": "5/8"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown field "meterSize"`)
}

func TestPatchFromRecordRejectsBadUserID(t *testing.T) {
	_, err := PatchFromRecord(map[string]string{"assignedUserId": "seven"})
	require.Error(t, err)
}

func TestPatchFromRecordRejectsBadTimestamp(t *testing.T) {
	_, err := PatchFromRecord(map[string]string{"scheduledAt": "03/14/2025"})
	require.Error(t, err)
}

func TestPatchFromRecordEmptyScheduledAtClears(t *testing.T) {
	p, err := PatchFromRecord(map[string]string{"scheduledAt": ""})
	require.NoError(t, err)
	assert.True(t, p.ScheduledAt.Set)
	assert.Nil(t, p.ScheduledAt.Value)
}
