package util

import (
	"strconv"
	"testing"
	"time"
)

func TestDayKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	// 02:30 local on Oct 11 is still Oct 10 in UTC.
	local := time.Date(2024, 10, 11, 2, 30, 0, 0, loc)
	if got := DayKey(local); got != "2024-10-10" {
		t.Fatalf("unexpected day key %s", got)
	}
}

func TestNextMidnight(t *testing.T) {
	at := time.Date(2024, 10, 10, 15, 4, 5, 0, time.UTC)
	want := time.Date(2024, 10, 11, 0, 0, 0, 0, time.UTC)
	if got := NextMidnight(at); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	// An instant exactly at midnight rolls to the following day.
	if got := NextMidnight(want); !got.Equal(want.Add(24 * time.Hour)) {
		t.Fatalf("expected rollover, got %v", got)
	}
}

func TestSameUTCDay(t *testing.T) {
	a := time.Date(2024, 10, 10, 0, 0, 1, 0, time.UTC)
	b := time.Date(2024, 10, 10, 23, 59, 59, 0, time.UTC)
	if !SameUTCDay(a, b) {
		t.Fatalf("expected same day")
	}
	if SameUTCDay(a, b.Add(time.Second)) {
		t.Fatalf("expected different day")
	}
}

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}
