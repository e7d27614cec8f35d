package analytics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/saadjs/fitplate/internal/analytics"
	"github.com/saadjs/fitplate/internal/model"
)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.Local)
}

func night(start time.Time, hours float64) []model.SleepSample {
	end := start.Add(time.Duration(hours * float64(time.Hour)))
	return []model.SleepSample{
		{Start: start.Add(-10 * time.Minute), End: end, Stage: model.SleepInBed},
		{Start: start, End: end, Stage: model.SleepAsleep},
	}
}

func TestIdenticalBedtimesAreVeryConsistent(t *testing.T) {
	t.Parallel()
	var samples []model.SleepSample
	for d := 1; d <= 3; d++ {
		samples = append(samples, night(at(2026, 3, d, 22, 30), 8)...)
	}
	r, err := analytics.SleepConsistency(samples)
	if err != nil {
		t.Fatalf("sleep consistency: %v", err)
	}
	if len(r.Nights) != 3 {
		t.Fatalf("nights = %d", len(r.Nights))
	}
	if r.BedtimeStdDevMinutes != 0 || r.Message != analytics.SleepVeryConsistent {
		t.Fatalf("report = %+v", r)
	}
	if r.AverageAsleep != 8*time.Hour {
		t.Fatalf("average asleep = %s", r.AverageAsleep)
	}
	if r.Nights[0].Night != "2026-03-01" {
		t.Fatalf("first night = %s", r.Nights[0].Night)
	}
}

func TestBedtimesAcrossMidnightStayClose(t *testing.T) {
	t.Parallel()
	samples := append(night(at(2026, 3, 1, 23, 30), 7), night(at(2026, 3, 3, 0, 30), 7)...)
	r, err := analytics.SleepConsistency(samples)
	if err != nil {
		t.Fatalf("sleep consistency: %v", err)
	}
	if len(r.Nights) != 2 || r.Nights[1].Night != "2026-03-02" {
		t.Fatalf("nights = %+v", r.Nights)
	}
	if !near(r.BedtimeStdDevMinutes, 30) || r.Message != analytics.SleepVeryConsistent {
		t.Fatalf("std dev = %v message = %q", r.BedtimeStdDevMinutes, r.Message)
	}
}

func TestBedtimeSpreadMessages(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		second time.Time
		std    float64
		want   string
	}{
		{name: "ninety minutes apart", second: at(2026, 3, 2, 23, 30), std: 45, want: analytics.SleepFairlyConsistent},
		{name: "two hours apart", second: at(2026, 3, 3, 0, 0), std: 60, want: analytics.SleepFairlyConsistent},
		{name: "just over two hours apart", second: at(2026, 3, 3, 0, 2), std: 61, want: analytics.SleepIrregular},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			samples := append(night(at(2026, 3, 1, 22, 0), 8), night(tc.second, 7)...)
			r, err := analytics.SleepConsistency(samples)
			if err != nil {
				t.Fatalf("sleep consistency: %v", err)
			}
			if len(r.Nights) != 2 {
				t.Fatalf("nights = %+v", r.Nights)
			}
			if !near(r.BedtimeStdDevMinutes, tc.std) || r.Message != tc.want {
				t.Fatalf("std dev = %v message = %q, want %v %q", r.BedtimeStdDevMinutes, r.Message, tc.std, tc.want)
			}
		})
	}
}

func TestIrregularBedtimes(t *testing.T) {
	t.Parallel()
	samples := append(night(at(2026, 3, 1, 21, 0), 8), night(at(2026, 3, 3, 1, 0), 6)...)
	r, err := analytics.SleepConsistency(samples)
	if err != nil {
		t.Fatalf("sleep consistency: %v", err)
	}
	if r.Message != analytics.SleepIrregular {
		t.Fatalf("std dev = %v message = %q", r.BedtimeStdDevMinutes, r.Message)
	}
}

func TestAwakeSamplesDoNotSetBedtime(t *testing.T) {
	t.Parallel()
	samples := []model.SleepSample{
		{Start: at(2026, 3, 1, 20, 0), End: at(2026, 3, 1, 20, 30), Stage: model.SleepAwake},
		{Start: at(2026, 3, 1, 23, 0), End: at(2026, 3, 2, 6, 0), Stage: model.SleepAsleep},
		// in-bed only, no asleep time: ignored
		{Start: at(2026, 3, 2, 23, 0), End: at(2026, 3, 3, 6, 0), Stage: model.SleepInBed},
	}
	r, err := analytics.SleepConsistency(samples)
	if err != nil {
		t.Fatalf("sleep consistency: %v", err)
	}
	if len(r.Nights) != 1 {
		t.Fatalf("nights = %+v", r.Nights)
	}
	n := r.Nights[0]
	if !n.Bedtime.Equal(at(2026, 3, 1, 23, 0)) || n.BedtimeMinutes != 23*60 {
		t.Fatalf("bedtime = %s (%v)", n.Bedtime, n.BedtimeMinutes)
	}
	if n.InBed != n.Asleep {
		t.Fatalf("in bed = %s asleep = %s", n.InBed, n.Asleep)
	}
}

func TestNoSleepData(t *testing.T) {
	t.Parallel()
	if _, err := analytics.SleepConsistency(nil); !errors.Is(err, analytics.ErrNoSleepData) {
		t.Fatalf("err = %v", err)
	}
}
