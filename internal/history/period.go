package history

import (
	"fmt"
	"time"
)

// Period selects how far back Range and Bucketize look.
type Period string

const (
	PeriodHour  Period = "1h"
	PeriodDay   Period = "1d"
	PeriodWeek  Period = "1w"
	PeriodMonth Period = "1m"
	PeriodAll   Period = "all"
)

// ParsePeriod validates a caller-supplied period.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodHour, PeriodDay, PeriodWeek, PeriodMonth, PeriodAll:
		return p, nil
	}
	return "", fmt.Errorf("history: unknown period %q", s)
}

// Duration returns the look-back span; PeriodAll returns 0.
func (p Period) Duration() time.Duration {
	switch p {
	case PeriodHour:
		return time.Hour
	case PeriodDay:
		return 24 * time.Hour
	case PeriodWeek:
		return 7 * 24 * time.Hour
	case PeriodMonth:
		return 30 * 24 * time.Hour
	}
	return 0
}

// Bucket is the width of one OHLCV point. Note "1m" is a minute here but a
// month as a Period.
type Bucket string

const (
	BucketMinute         Bucket = "1m"
	BucketFiveMinutes    Bucket = "5m"
	BucketFifteenMinutes Bucket = "15m"
	BucketHour           Bucket = "1h"
	BucketDay            Bucket = "1d"
)

func ParseBucket(s string) (Bucket, error) {
	switch b := Bucket(s); b {
	case BucketMinute, BucketFiveMinutes, BucketFifteenMinutes, BucketHour, BucketDay:
		return b, nil
	}
	return "", fmt.Errorf("history: unknown bucket %q", s)
}

func (b Bucket) Duration() time.Duration {
	switch b {
	case BucketMinute:
		return time.Minute
	case BucketFiveMinutes:
		return 5 * time.Minute
	case BucketFifteenMinutes:
		return 15 * time.Minute
	case BucketHour:
		return time.Hour
	case BucketDay:
		return 24 * time.Hour
	}
	return 0
}
