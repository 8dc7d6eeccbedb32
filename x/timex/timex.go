package timex

import "time"

// NowMs returns Unix milliseconds as int64. All bus timestamps use this.
func NowMs() int64 { return time.Now().UnixMilli() }

// PeriodFromHz returns the sampling period for a requested rate.
// rateHz == 0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(rateHz uint32) time.Duration {
	if rateHz == 0 {
		rateHz = 1
	}
	return time.Duration(uint64(time.Second) / uint64(rateHz))
}
