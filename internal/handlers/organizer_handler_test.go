package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendanceRequest_FieldName(t *testing.T) {
	var req attendanceRequest
	require.NoError(t, json.Unmarshal([]byte(`{"attendance_marked":true}`), &req))
	assert.True(t, req.AttendanceMarked)

	// The wire name is attendance_marked; a bare "marked" must not bind.
	req = attendanceRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"marked":true}`), &req))
	assert.False(t, req.AttendanceMarked)
}
