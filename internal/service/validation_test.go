package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/taskflow/internal/domain"
)

func TestParseDueDate(t *testing.T) {
	cases := map[string]time.Time{
		"2025-01-01":                time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		"2025-01-01T00:30:00+02:00": time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		"2025-01-01T23:30:00-05:00": time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		"2025-01-01T12:00:00Z":      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			got, err := parseDueDate(in)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, want, *got)
		})
	}

	got, err := parseDueDate("  ")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseDueDate("01/01/2025")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
