package model

import "time"

type SleepStage string

const (
	SleepInBed  SleepStage = "inBed"
	SleepAsleep SleepStage = "asleep"
	SleepAwake  SleepStage = "awake"
)

// SleepSample is one interval reported by a wearable.
type SleepSample struct {
	Start time.Time  `json:"start"`
	End   time.Time  `json:"end"`
	Stage SleepStage `json:"stage"`
}

func (s SleepSample) Duration() time.Duration {
	if s.End.Before(s.Start) {
		return 0
	}
	return s.End.Sub(s.Start)
}
