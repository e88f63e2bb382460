package ingress

import (
	"errors"
	"time"
)

var errMissingFields = errors.New("missing required event fields (id, camera, label)")

func floatSecondsToTime(sec float64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	whole := int64(sec)
	frac := sec - float64(whole)
	return time.Unix(whole, int64(frac*1e9)).UTC()
}
