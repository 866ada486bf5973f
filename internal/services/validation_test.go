package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr bool
	}{
		{name: "minimum length", title: "fix"},
		{name: "maximum length", title: strings.Repeat("a", 200)},
		{name: "too short", title: "ab", wantErr: true},
		{name: "empty", title: "", wantErr: true},
		{name: "too long", title: strings.Repeat("a", 201), wantErr: true},
		{name: "multibyte runes counted as characters", title: "баг"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTitle(tt.title)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
				assert.Contains(t, err.Error(), "invalid title length")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDueDate(t *testing.T) {
	createdAt := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	assert.NoError(t, validateDueDate(createdAt.Add(24*time.Hour), createdAt))
	assert.NoError(t, validateDueDate(createdAt, createdAt), "due == createdAt is allowed")

	err := validateDueDate(createdAt.Add(-time.Second), createdAt)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "due date before creation date")
}

func TestValidateStatusAndPriority(t *testing.T) {
	assert.NoError(t, validateStatus("Done"))
	assert.Error(t, validateStatus("Overdue"))
	assert.Error(t, validateStatus("archived"))

	assert.NoError(t, validatePriority("High"))
	assert.Error(t, validatePriority("Critical"))
}
