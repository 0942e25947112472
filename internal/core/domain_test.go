package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok {
			assert.NoError(t, err, "case %d", i)
		} else {
			assert.Error(t, err, "case %d", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, 2, 29), d)

	for _, in := range []string{"2023-02-29", "15/03/2024", "", "2024-3"} {
		_, err := ParseDate(in)
		assert.ErrorIs(t, err, ErrInvalidInput, in)
	}
}

func TestParseRecordDate(t *testing.T) {
	for _, in := range []string{"2025-09-28", "2025-09-28T03:00:00Z", "2025-09-28 03:00:00", "2025-9-28"} {
		d, err := ParseRecordDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, NewDate(2025, 9, 28), d, in)
	}

	_, err := ParseRecordDate("yesterday")
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestNewDateNormalizes(t *testing.T) {
	assert.Equal(t, NewDate(2023, 2, 28), NewDate(2023, 3, 0))
	assert.Equal(t, NewDate(2024, 1, 1), NewDate(2023, 12, 31).AddDays(1))
	assert.Equal(t, "2024-01-01", NewDate(2024, 1, 1).String())
}
