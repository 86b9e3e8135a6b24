package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{in: "09:00", want: 9 * 60},
		{in: "9:30", want: 9*60 + 30},
		{in: "17:45:59", want: 17*60 + 45},
		{in: "00:00", want: 0},
		{in: "24:00", want: EndOfDay},
		{in: "24:01", wantErr: true},
		{in: "24:00:01", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "25:00", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "12", wantErr: true},
		{in: "1:2:3:4", wantErr: true},
		{in: "-1:00", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClockTime(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClockTimeFormatting(t *testing.T) {
	assert.Equal(t, "09:05", ClockTime(9*60+5).String())
	assert.Equal(t, "24:00", EndOfDay.String())
	assert.Equal(t, MustClock("10:30"), MustClock("09:00").Add(90))

	v, err := MustClock("08:15").Value()
	require.NoError(t, err)
	assert.Equal(t, "08:15:00", v)
}

func TestClockTimeJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		At ClockTime `json:"at"`
	}{MustClock("13:30")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"13:30"}`, string(data))

	var out struct {
		At ClockTime `json:"at"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"at":"07:45:00"}`), &out))
	assert.Equal(t, MustClock("07:45"), out.At)

	assert.Error(t, json.Unmarshal([]byte(`{"at":"7pm"}`), &out))
}

func TestClockTimeScan(t *testing.T) {
	var c ClockTime
	require.NoError(t, c.Scan("14:20:00"))
	assert.Equal(t, MustClock("14:20"), c)

	require.NoError(t, c.Scan([]byte("06:10:00.000000")))
	assert.Equal(t, MustClock("06:10"), c)

	require.NoError(t, c.Scan(time.Date(0, 1, 1, 11, 5, 0, 0, time.UTC)))
	assert.Equal(t, MustClock("11:05"), c)

	require.NoError(t, c.Scan(time.Date(0, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, EndOfDay, c)

	require.NoError(t, c.Scan("24:00:00"))
	assert.Equal(t, EndOfDay, c)

	assert.Error(t, c.Scan(42))
}

func TestDate(t *testing.T) {
	d := MustDate("2024-03-09")
	assert.Equal(t, "2024-03-09", d.String())
	assert.Equal(t, int32(20240309), d.Key())
	assert.True(t, MustDate("2024-03-08").Before(d))
	assert.True(t, d.Equal(DateOf(time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC))))

	_, err := ParseDate("09/03/2024")
	assert.Error(t, err)

	var scanned Date
	require.NoError(t, scanned.Scan("2024-03-09T00:00:00Z"))
	assert.True(t, d.Equal(scanned))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-09"`, string(data))
}
