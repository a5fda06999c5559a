package telemetry

import (
	"errors"
	"strings"
	"time"
	"unicode"
)

// Trend direction of a glucose reading as reported by the sensor.
type Trend int

const (
	TrendFalling Trend = 0
	TrendRising  Trend = 1
)

// Sample is one physiological reading stored for a device. Samples are
// immutable once stored; the analysis side only ever reads them.
type Sample struct {
	DeviceID       string  `json:"device_id"`
	Timestamp      int64   `json:"timestamp"`
	Glucose        float64 `json:"glucose"`
	Variation      float64 `json:"variation"`
	Trend          Trend   `json:"trend"`
	HeartRate      int     `json:"heart_rate"`
	Oxygen         int     `json:"oxygen"`
	SensorUnstable bool    `json:"sensor_unstable"`
	Tachycardia    bool    `json:"tachycardia"`
	Bradycardia    bool    `json:"bradycardia"`
	Hypoxia        bool    `json:"hypoxia"`
}

// Validate checks sample invariants before storage.
func (s Sample) Validate() error {
	if err := ValidateDeviceID(s.DeviceID); err != nil {
		return err
	}
	if s.Timestamp <= 0 {
		return errors.New("sample: invalid timestamp")
	}
	if s.Glucose < 0 {
		return errors.New("sample: negative glucose")
	}
	if s.HeartRate < 0 || s.Oxygen < 0 || s.Oxygen > 100 {
		return errors.New("sample: vitals out of range")
	}
	return nil
}

// Time returns the reading time. Timestamps are stored as epoch seconds but
// millisecond values from older firmware are detected by magnitude.
func (s Sample) Time() time.Time {
	return EpochTime(s.Timestamp)
}

// InstabilityPeak is the extreme excursion implied by the recorded variation
// and trend direction. Display only.
func (s Sample) InstabilityPeak() float64 {
	if s.Trend == TrendRising {
		return round2(s.Glucose + s.Variation)
	}
	return round2(s.Glucose - s.Variation)
}

// EpochTime converts an epoch value to UTC time, accepting seconds or
// milliseconds by magnitude.
func EpochTime(value int64) time.Time {
	if value > 1_000_000_000_000 {
		return time.UnixMilli(value).UTC()
	}
	return time.Unix(value, 0).UTC()
}

const maxDeviceIDLength = 128

// ErrInvalidDeviceID marks a device identifier that must not reach the store.
var ErrInvalidDeviceID = errors.New("telemetry: invalid device id")

// ValidateDeviceID rejects malformed identifiers before any query is made.
func ValidateDeviceID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidDeviceID
	}
	if len(id) > maxDeviceIDLength {
		return ErrInvalidDeviceID
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return ErrInvalidDeviceID
		}
	}
	return nil
}

func round2(value float64) float64 {
	if value >= 0 {
		return float64(int64(value*100+0.5)) / 100
	}
	return float64(int64(value*100-0.5)) / 100
}
