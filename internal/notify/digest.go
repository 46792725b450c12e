package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/taskyard/internal/models"
	"gorm.io/gorm"
)

// maxDigestLines caps how many tasks a digest lists individually.
const maxDigestLines = 15

// BuildOverdueDigest queries for unfinished tasks whose due date has passed
// and formats them into one message. Returns nil when nothing is overdue.
func BuildOverdueDigest(gdb *gorm.DB, now time.Time) (*Message, error) {
	var overdue []models.TaskItem
	err := gdb.Where("due_date IS NOT NULL AND due_date < ? AND status IN ?", now,
		[]string{models.StatusPending, models.StatusInProgress}).
		Order("due_date ASC").
		Find(&overdue).Error
	if err != nil {
		return nil, fmt.Errorf("notify: overdue digest: %w", err)
	}
	if len(overdue) == 0 {
		return nil, nil
	}

	var b strings.Builder
	for i, t := range overdue {
		if i == maxDigestLines {
			fmt.Fprintf(&b, "...and %d more\n", len(overdue)-maxDigestLines)
			break
		}
		days := int(now.Sub(*t.DueDate).Hours() / 24)
		fmt.Fprintf(&b, "- %s (due %s, %dd overdue)\n", t.Title, t.DueDate.Format("2006-01-02"), days)
	}

	return &Message{
		Title: fmt.Sprintf("Overdue tasks: %d", len(overdue)),
		Body:  strings.TrimRight(b.String(), "\n"),
	}, nil
}
