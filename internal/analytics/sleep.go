package analytics

import (
	"errors"
	"sort"
	"time"

	"github.com/saadjs/fitplate/internal/model"
)

var ErrNoSleepData = errors.New("no nights with sleep")

const (
	SleepVeryConsistent   = "Your bedtime is very consistent."
	SleepFairlyConsistent = "Your bedtime is fairly consistent."
	SleepIrregular        = "Your bedtime varies by more than an hour, a more regular schedule can help."
)

type NightSleep struct {
	Night          string        `json:"night"`
	Bedtime        time.Time     `json:"bedtime"`
	Asleep         time.Duration `json:"asleep"`
	InBed          time.Duration `json:"in_bed"`
	BedtimeMinutes float64       `json:"bedtime_minutes"`
}

type SleepReport struct {
	Nights               []NightSleep  `json:"nights"`
	AverageAsleep        time.Duration `json:"average_asleep"`
	AverageInBed         time.Duration `json:"average_in_bed"`
	AverageBedtime       float64       `json:"average_bedtime_minutes"`
	BedtimeStdDevMinutes float64       `json:"bedtime_std_dev_minutes"`
	Message              string        `json:"message"`
}

// nightOf assigns a sample to the night it belongs to: anything starting
// before noon counts toward the previous evening.
func nightOf(t time.Time) string {
	return model.DayKey(t.In(time.Local).Add(-12 * time.Hour))
}

// bedtimeMinutes is minutes since midnight of the night's evening, so a
// 00:30 bedtime is 1470 rather than 30.
func bedtimeMinutes(t time.Time) float64 {
	local := t.In(time.Local)
	minutes := float64(local.Hour()*60+local.Minute()) + float64(local.Second())/60
	if local.Hour() < 12 {
		minutes += 24 * 60
	}
	return minutes
}

// SleepConsistency groups samples by night and summarizes the nights that
// have any asleep time.
func SleepConsistency(samples []model.SleepSample) (SleepReport, error) {
	byNight := map[string]*NightSleep{}
	for _, s := range samples {
		if s.Duration() <= 0 {
			continue
		}
		key := nightOf(s.Start)
		n, ok := byNight[key]
		if !ok {
			n = &NightSleep{Night: key}
			byNight[key] = n
		}
		if s.Stage != model.SleepAwake && (n.Bedtime.IsZero() || s.Start.Before(n.Bedtime)) {
			n.Bedtime = s.Start
		}
		switch s.Stage {
		case model.SleepAsleep:
			n.Asleep += s.Duration()
		case model.SleepInBed:
			n.InBed += s.Duration()
		}
	}

	nights := make([]NightSleep, 0, len(byNight))
	for _, n := range byNight {
		if n.Asleep <= 0 {
			continue
		}
		if n.InBed <= 0 {
			n.InBed = n.Asleep
		}
		n.BedtimeMinutes = bedtimeMinutes(n.Bedtime)
		nights = append(nights, *n)
	}
	if len(nights) == 0 {
		return SleepReport{}, ErrNoSleepData
	}
	sort.Slice(nights, func(i, j int) bool { return nights[i].Night < nights[j].Night })

	var asleep, inBed time.Duration
	bedtimes := make([]float64, 0, len(nights))
	for _, n := range nights {
		asleep += n.Asleep
		inBed += n.InBed
		bedtimes = append(bedtimes, n.BedtimeMinutes)
	}
	stat := calcConsistencyStat(bedtimes)
	out := SleepReport{
		Nights:               nights,
		AverageAsleep:        asleep / time.Duration(len(nights)),
		AverageInBed:         inBed / time.Duration(len(nights)),
		AverageBedtime:       stat.Mean,
		BedtimeStdDevMinutes: stat.StdDev,
	}
	switch {
	case stat.StdDev <= 30:
		out.Message = SleepVeryConsistent
	case stat.StdDev <= 60:
		out.Message = SleepFairlyConsistent
	default:
		out.Message = SleepIrregular
	}
	return out, nil
}
