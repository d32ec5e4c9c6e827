package ui

import "time"

// PeriodForRPM returns the duration of one full turn at rpm revolutions per minute
func PeriodForRPM(rpm float64) time.Duration {
	if rpm <= 0 {
		return 0
	}
	return time.Duration(float64(time.Minute) / rpm)
}

// RotationAngle maps elapsed time onto [0, 360) degrees for a turn of length period
func RotationAngle(elapsed, period time.Duration) float64 {
	if period <= 0 || elapsed <= 0 {
		return 0
	}
	return float64(elapsed%period) * 360 / float64(period)
}

var logoFrames = []string{"◐", "◓", "◑", "◒"}

// logoFrame picks the glyph closest to angle
func logoFrame(angle float64) string {
	step := 360.0 / float64(len(logoFrames))
	i := int((angle+step/2)/step) % len(logoFrames)
	return logoFrames[i]
}
