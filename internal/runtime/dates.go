package runtime

import (
	"math"
	"time"
)

const (
	secondsPerDay  = 86400
	secondsPerHour = 3600
	// Serial number of 1970-01-01 in the 1900 date system.
	unixEpochSerial = 25569
	// First serial after the phantom 1900-02-29.
	nonLeapDay = 61
)

// wallClock returns the calendar fields of t as a UTC instant, so that serial
// arithmetic never sees daylight saving offsets.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// serialToWall converts a serial date into a wall clock time in UTC. In Excel
// mode serials below 61 are shifted by one day to honor the phantom leap day.
func (env *Environment) serialToWall(serial float64) time.Time {
	v := serial
	if env.mode == Excel && math.Abs(v) >= 1 && v < nonLeapDay {
		v++
	}
	secs := math.Round((v - unixEpochSerial) * secondsPerDay)
	return time.Unix(int64(secs), 0).UTC()
}

func (env *Environment) wallToSerial(wall time.Time) float64 {
	v := float64(wall.UnixMilli())/(secondsPerDay*1000) + unixEpochSerial
	if env.mode == Excel && v >= 1 && v < nonLeapDay {
		v--
	}
	return v
}

// TimeFromSerial converts a serial date into an instant in the environment's
// time zone.
func (env *Environment) TimeFromSerial(serial float64) time.Time {
	w := env.serialToWall(serial)
	return time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), 0, env.location)
}

// SerialFromTime converts an instant into a serial date using its wall clock
// in the environment's time zone. The zero time converts to 0.
func (env *Environment) SerialFromTime(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return env.wallToSerial(wallClock(t.In(env.location)))
}

// SerialFromDuration converts a duration into fractional days.
func SerialFromDuration(d time.Duration) float64 {
	return float64(d.Milliseconds()) / (secondsPerDay * 1000)
}

// DurationFromSerial converts fractional days into a duration rounded to the
// second.
func DurationFromSerial(days float64) time.Duration {
	return time.Duration(math.Round(days*secondsPerDay)) * time.Second
}

// Date returns the serial of year, month and day. Years below 1899 are offset
// by 1900 and out of range months and days roll over.
func (env *Environment) Date(year, month, day int) float64 {
	if year < 1899 {
		year += 1900
	}
	return env.wallToSerial(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC))
}

// Time returns the day fraction of the given clock time. Excel wraps the
// result into a single day; OpenOffice does not.
func (env *Environment) Time(hour, minute, second float64) float64 {
	seconds := int64(hour)*secondsPerHour + int64(minute)*60 + int64(second)
	if env.mode == Excel {
		seconds %= secondsPerDay
	}
	return float64(seconds) / secondsPerDay
}

func (env *Environment) Day(serial float64) int   { return env.serialToWall(serial).Day() }
func (env *Environment) Month(serial float64) int { return int(env.serialToWall(serial).Month()) }
func (env *Environment) Year(serial float64) int  { return env.serialToWall(serial).Year() }

// Weekday returns the day of the week of serial numbered according to
// returnType: 1 counts Sunday as 1, 2 counts Monday as 1, 3 counts Monday
// as 0.
func (env *Environment) Weekday(serial float64, returnType int) (int, error) {
	dow := int(env.serialToWall(serial).Weekday()) + 1
	switch returnType {
	case 1:
		return dow, nil
	case 2:
		if dow > 1 {
			return dow - 1, nil
		}
		return 7, nil
	case 3:
		if dow > 1 {
			return dow - 2, nil
		}
		return 6, nil
	default:
		return 0, domain("because type %d is not 1, 2 or 3 in WEEKDAY", returnType)
	}
}

func daySeconds(serial float64) int64 {
	return int64(math.Round(math.Mod(serial, 1) * secondsPerDay))
}

func Hour(serial float64) int   { return int(daySeconds(serial) / secondsPerHour % 24) }
func Minute(serial float64) int { return int(daySeconds(serial) / 60 % 60) }
func Second(serial float64) int { return int(daySeconds(serial) % 60) }

// NowSerial returns the serial of the current instant.
func (env *Environment) NowSerial() float64 {
	return env.SerialFromTime(env.Now())
}

// Today returns the serial of the current day at midnight.
func (env *Environment) Today() float64 {
	now := env.Now().In(env.location)
	return env.SerialFromTime(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, env.location))
}

// Days360 counts the days between two serials on a 360 day year, using the
// European method when european is set and the US (NASD) method otherwise.
func (env *Environment) Days360(start, end float64, european bool) float64 {
	s := env.serialToWall(start)
	e := env.serialToWall(end)
	sd, ed := s.Day(), e.Day()
	if european {
		if sd == 31 {
			sd = 30
		}
		if ed == 31 {
			ed = 30
		}
	} else {
		if isLastDayOfFebruary(s) {
			if isLastDayOfFebruary(e) {
				ed = 30
			}
			sd = 30
		}
		if sd == 31 {
			sd = 30
		}
		if ed == 31 && sd >= 30 {
			ed = 30
		}
	}
	return float64((e.Year()-s.Year())*360 + (int(e.Month())-int(s.Month()))*30 + ed - sd)
}

func isLastDayOfFebruary(t time.Time) bool {
	return t.Month() == time.February && t.AddDate(0, 0, 1).Month() == time.March
}
