package app

import (
	"time"

	"github.com/jsamuelsen/qotd/internal/domain"
)

// SecondsPerDay is the nominal length of a day. Leap seconds are ignored,
// so day boundaries fall on multiples of this value since the unix epoch.
const SecondsPerDay = 86400

// DayNumber returns the number of whole days between the unix epoch and now.
// Days are counted in UTC regardless of the host's local timezone.
func DayNumber(now time.Time) (int64, error) {
	secs := now.Unix()
	if secs < 0 {
		return 0, domain.ErrClockBeforeEpoch
	}

	return secs / SecondsPerDay, nil
}

// SelectIndex maps an instant onto an index in [0, size).
// All instants within the same UTC day yield the same index, and the index
// advances by one per day, wrapping after size days.
func SelectIndex(now time.Time, size int) (int, error) {
	if size <= 0 {
		return 0, domain.NewValidationErrorWithValue("size", "must be positive", size)
	}

	day, err := DayNumber(now)
	if err != nil {
		return 0, err
	}

	return int(day % int64(size)), nil
}
