package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shiftRequest struct {
	Dates     []string `json:"dates" validate:"required,min=1,dive,ymd"`
	StartTime string   `json:"start_time" validate:"required,hhmm"`
	Email     string   `json:"email" validate:"omitempty,email"`
}

func TestIsClockTime(t *testing.T) {
	valid := []string{"00:00", "09:30", "23:59", "24:00", "08:15:00"}
	invalid := []string{"", "9:30", "24:01", "25:00", "12:60", "noon", "12:30:61"}

	for _, s := range valid {
		assert.True(t, IsClockTime(s), s)
	}
	for _, s := range invalid {
		assert.False(t, IsClockTime(s), s)
	}
}

func TestCustomTags(t *testing.T) {
	v := New()

	err := v.Struct(shiftRequest{Dates: []string{"2030-01-15"}, StartTime: "09:00"})
	require.NoError(t, err)

	err = v.Struct(shiftRequest{
		Dates:     []string{"2030-01-15", "15/01/2030"},
		StartTime: "9am",
		Email:     "not-an-email",
	})
	require.Error(t, err)

	assert.ElementsMatch(t, []string{
		"dates[1] must be a date in YYYY-MM-DD format",
		"start_time must be a time in HH:MM format",
		"email must be a valid email",
	}, Messages(err))
}

func TestMessagesForOtherErrors(t *testing.T) {
	assert.Equal(t, []string{"unexpected EOF"}, Messages(errors.New("unexpected EOF")))
}

func TestRegisterIsIdempotent(t *testing.T) {
	require.NoError(t, Register())
	require.NoError(t, Register())
}
