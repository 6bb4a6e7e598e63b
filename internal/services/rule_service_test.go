package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/warden/backend/internal/models"
)

func TestRuleService_SetValidates(t *testing.T) {
	svc := NewRuleService(openTestDB(t))

	_, err := svc.Set(0, "1 hour", "")
	assert.ErrorIs(t, err, ErrMissingRuleParams)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Set(-2, "1 hour", "")
	assert.ErrorIs(t, err, ErrMissingRuleParams)

	_, err = svc.Set(3, "  ", "")
	assert.ErrorIs(t, err, ErrMissingRuleParams)
}

func TestRuleService_SetDefaultsPattern(t *testing.T) {
	svc := NewRuleService(openTestDB(t))

	rule, err := svc.Set(3, "1 hour", "")
	require.NoError(t, err)
	assert.True(t, rule.Active)
	assert.NotZero(t, rule.ID)
	assert.Equal(t, models.DefaultDetectionPattern, rule.DetectionPattern)
}

func TestRuleService_ActiveReturnsNewest(t *testing.T) {
	svc := NewRuleService(openTestDB(t))

	_, err := svc.Active()
	assert.ErrorIs(t, err, ErrRuleNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Set(5, "1 hour", "multiple_failed_logins")
	require.NoError(t, err)
	newest, err := svc.Set(3, "30 minutes", "credential_stuffing")
	require.NoError(t, err)

	active, err := svc.Active()
	require.NoError(t, err)
	assert.Equal(t, newest.ID, active.ID)
	assert.Equal(t, 3, active.MaxFailedAttempts)
	assert.Equal(t, "credential_stuffing", active.DetectionPattern)

	// Older rules are not deactivated.
	rules, err := svc.List()
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.True(t, rules[0].Active)
	assert.True(t, rules[1].Active)
	assert.Equal(t, newest.ID, rules[0].ID)
}

func TestRuleService_ActiveIgnoresInactiveRows(t *testing.T) {
	db := openTestDB(t)
	svc := NewRuleService(db)

	older, err := svc.Set(4, "1 hour", "")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.BlockingRule{MaxFailedAttempts: 9, BlockDuration: "1 day", DetectionPattern: "x", Active: false}).Error)

	active, err := svc.Active()
	require.NoError(t, err)
	assert.Equal(t, older.ID, active.ID)
}
