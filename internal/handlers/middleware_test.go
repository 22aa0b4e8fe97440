package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authRecord(role string, disabled bool) *core.Record {
	collection := core.NewAuthCollection("users")
	collection.Fields.Add(
		&core.SelectField{Name: "role", Values: []string{"participant", "organizer"}, MaxSelect: 1},
		&core.BoolField{Name: "disabled"},
	)

	record := core.NewRecord(collection)
	record.Set("role", role)
	record.Set("disabled", disabled)
	return record
}

func middlewareStatus(t *testing.T, err error) int {
	t.Helper()
	var apiErr *router.ApiError
	require.True(t, errors.As(err, &apiErr), "expected an ApiError, got %T", err)
	return apiErr.Status
}

func TestRequireRole_Unauthenticated(t *testing.T) {
	err := RequireRole(RoleOrganizer)(&core.RequestEvent{})
	assert.Equal(t, http.StatusUnauthorized, middlewareStatus(t, err))
}

func TestRequireRole_DisabledAccount(t *testing.T) {
	e := &core.RequestEvent{Auth: authRecord(RoleOrganizer, true)}
	err := RequireRole(RoleOrganizer)(e)
	assert.Equal(t, http.StatusForbidden, middlewareStatus(t, err))
}

func TestRequireRole_WrongRole(t *testing.T) {
	e := &core.RequestEvent{Auth: authRecord(RoleParticipant, false)}
	err := RequireRole(RoleOrganizer)(e)
	assert.Equal(t, http.StatusForbidden, middlewareStatus(t, err))
}

// A freshly created account carries the zero value for disabled and must be
// let through without any activation step.
func TestRequireRole_FreshAccountPasses(t *testing.T) {
	collection := core.NewAuthCollection("users")
	collection.Fields.Add(
		&core.SelectField{Name: "role", Values: []string{"participant", "organizer"}, MaxSelect: 1},
		&core.BoolField{Name: "disabled"},
	)
	record := core.NewRecord(collection)
	record.Set("role", RoleParticipant)

	e := &core.RequestEvent{Auth: record}
	assert.NoError(t, RequireRole(RoleParticipant)(e))
}
