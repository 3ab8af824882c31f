package models

import (
	"testing"
	"time"
)

func TestParseWallTime_KeepsWrittenDate(t *testing.T) {
	got, ok := ParseWallTime("2024-03-01T23:30:00-05:00")
	if !ok {
		t.Fatal("expected a time")
	}
	want := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	// The instant moves to the next day in UTC.
	utc, _ := ParseTime("2024-03-01T23:30:00-05:00")
	if utc.Day() != 2 {
		t.Errorf("ParseTime day: got %d, want 2", utc.Day())
	}
}

func TestParseWallTime_NonStringsAndBadInput(t *testing.T) {
	if _, ok := ParseWallTime("soon"); ok {
		t.Error("malformed string should not parse")
	}
	if _, ok := ParseWallTime(""); ok {
		t.Error("empty string should not parse")
	}
	got, ok := ParseWallTime(float64(1709337600000))
	if !ok || !got.Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unix millis: got %v %v", got, ok)
	}
}
