package notify

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	next := sched.Next(time.Now())
	d := time.Until(next)
	if d < 0 {
		return 0
	}
	return d
}

// ValidSchedule reports whether expr parses as a 5-field cron expression.
func ValidSchedule(expr string) bool {
	_, err := cronParser.Parse(expr)
	return err == nil
}

// RunDigest fires the overdue digest on the given cron schedule until the
// context is cancelled. Empty digests are suppressed; build and delivery
// failures are logged, never fatal.
func RunDigest(ctx context.Context, gdb *gorm.DB, notifiers []Notifier, schedule string) {
	for {
		d := nextCronDuration(schedule)
		if d == 0 {
			log.Printf("notify: invalid digest schedule %q, digest disabled", schedule)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(d):
		}

		msg, err := BuildOverdueDigest(gdb, time.Now().UTC())
		if err != nil {
			log.Printf("notify: %v", err)
			continue
		}
		if msg == nil {
			continue
		}
		Fanout(ctx, notifiers, *msg)
	}
}
