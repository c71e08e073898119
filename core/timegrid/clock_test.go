package timegrid

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		policy MeridiemPolicy
		want   int
		wantOk bool
	}{
		{name: "12h with space", text: "8:00 AM", want: 480, wantOk: true},
		{name: "12h no space lower", text: "8:00am", want: 480, wantOk: true},
		{name: "12h mixed case", text: "8:30 Pm", want: 20*60 + 30, wantOk: true},
		{name: "noon", text: "12:00 PM", want: 720, wantOk: true},
		{name: "midnight", text: "12:00 AM", want: 0, wantOk: true},
		{name: "12:45 AM", text: "12:45 AM", want: 45, wantOk: true},
		{name: "11:59 PM", text: "11:59 PM", want: 1439, wantOk: true},
		{name: "24h padded", text: "08:00", want: 480, wantOk: true},
		{name: "24h afternoon", text: "14:15", want: 14*60 + 15, wantOk: true},
		{name: "24h bare hour is not inferred", text: "2:00", want: 120, wantOk: true},
		{name: "surrounding spaces", text: "  9:05 AM ", want: 545, wantOk: true},
		{name: "meridiem required, none given", text: "08:00", policy: MeridiemRequired},
		{name: "meridiem required, given", text: "8:00 AM", policy: MeridiemRequired, want: 480, wantOk: true},
		{name: "empty", text: ""},
		{name: "garbage", text: "lol"},
		{name: "no minutes", text: "8 AM"},
		{name: "one minute digit", text: "8:0 AM"},
		{name: "minutes out of range", text: "8:60 AM"},
		{name: "hour 13 with meridiem", text: "13:00 PM"},
		{name: "hour 0 with meridiem", text: "0:30 AM"},
		{name: "hour 24", text: "24:00"},
		{name: "three hour digits", text: "108:00"},
		{name: "bad marker", text: "8:00 XM"},
		{name: "dotted marker", text: "8:00 a.m."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := tt.policy
			if policy == "" {
				policy = MeridiemTwentyFourHour
			}
			got, ok := ParseClockTime(tt.text, policy)
			require.Equal(t, tt.wantOk, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseClockTime_roundTrip12Hour(t *testing.T) {
	for h := 1; h <= 12; h++ {
		for mm := 0; mm <= 59; mm++ {
			for _, mer := range []string{"AM", "PM"} {
				text := fmt.Sprintf("%d:%02d %s", h, mm, mer)
				minutes, ok := ParseClockTime(text, MeridiemRequired)
				require.True(t, ok, text)
				require.True(t, minutes >= 0 && minutes <= 1439, "%s = %d out of day range", text, minutes)
				assert.Equal(t, text, FormatClockTime(minutes, Format12Hour))
			}
		}
	}
}

func TestFormatClockTime(t *testing.T) {
	tests := []struct {
		minutes int
		format  TimeFormat
		want    string
	}{
		{0, Format12Hour, "12:00 AM"},
		{420, Format12Hour, "7:00 AM"},
		{750, Format12Hour, "12:30 PM"},
		{1439, Format12Hour, "11:59 PM"},
		{0, Format24Hour, "00:00"},
		{425, Format24Hour, "07:05"},
		{1439, Format24Hour, "23:59"},
		{1440 + 60, Format24Hour, "01:00"},
		{-60, Format24Hour, "23:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatClockTime(tt.minutes, tt.format), "%d %s", tt.minutes, tt.format)
	}
}

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		text       string
		start, end int
		wantOk     bool
	}{
		{text: "8:00 AM - 10:00 AM", start: 480, end: 600, wantOk: true},
		{text: "08:00 - 09:30", start: 480, end: 570, wantOk: true},
		{text: "1:00 PM - 2:30PM", start: 780, end: 870, wantOk: true},
		{text: "10:00 AM - 8:00 AM", start: 600, end: 480, wantOk: true}, // order not enforced
		{text: "8:00 AM-10:00 AM"},
		{text: "8:00 AM - "},
		{text: "8:00 AM"},
		{text: ""},
		{text: "8:00 AM - 9:00 AM - 10:00 AM"},
	}
	for _, tt := range tests {
		start, end, ok := ParseTimeRange(tt.text, MeridiemTwentyFourHour)
		if !assert.Equal(t, tt.wantOk, ok, tt.text) || !ok {
			continue
		}
		assert.Equal(t, [2]int{tt.start, tt.end}, [2]int{start, end}, tt.text)
	}
}
