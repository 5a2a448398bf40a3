package scheduler

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Trigger decides when a registered task runs.
type Trigger interface {
	fmt.Stringer
}

// TimerTrigger runs the task every Interval, first after one full interval.
type TimerTrigger struct {
	Interval time.Duration
}

func (t TimerTrigger) String() string {
	return "timer(" + t.Interval.String() + ")"
}

// TimeZoneTrigger runs the task when the system time zone changes. The zone
// is polled every PollInterval; Zone defaults to SystemZone.
type TimeZoneTrigger struct {
	PollInterval time.Duration
	Zone         func() string
}

func (t TimeZoneTrigger) String() string {
	return "time-zone-change(" + t.PollInterval.String() + ")"
}

const defaultZonePoll = time.Minute

// SystemZone identifies the current system time zone: $TZ when set, else the
// /etc/localtime link target, else the abbreviation of time.Local.
func SystemZone() string {
	if tz, ok := os.LookupEnv("TZ"); ok && tz != "" {
		return tz
	}
	if target, err := os.Readlink("/etc/localtime"); err == nil {
		if i := strings.Index(target, "zoneinfo/"); i >= 0 {
			return target[i+len("zoneinfo/"):]
		}
		return target
	}
	name, offset := time.Now().Zone()
	return fmt.Sprintf("%s%+d", name, offset)
}
