package server

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/taskyard/internal/models"
	"gorm.io/gorm"
)

const (
	activityWindow   = 30 * 24 * time.Hour
	activityLimit    = 20
	outstandingLimit = 10
)

// ActivityItem is one row of the recent-activity feed.
type ActivityItem struct {
	Type      string    `json:"type"` // "created" or "completed"
	TaskID    string    `json:"taskId"`
	Title     string    `json:"title"`
	UserID    string    `json:"userId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// UserStats summarizes the requesting user's workload.
type UserStats struct {
	Assigned          int64   `json:"assigned"`
	Completed         int64   `json:"completed"`
	CompletionPercent float64 `json:"completionPercent"`
}

// Dashboard is the payload of GET /api/dashboard.
type Dashboard struct {
	RecentActivity []ActivityItem    `json:"recentActivity"`
	Stats          UserStats         `json:"stats"`
	Outstanding    []models.TaskItem `json:"outstanding"`
}

func handleDashboard(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := capability(c).UserID
		d, err := buildDashboard(db, userID, time.Now().UTC())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

// buildDashboard merges created and completed events from the last 30 days,
// newest 20, plus per-user workload stats and the ten most pressing
// outstanding tasks.
func buildDashboard(db *gorm.DB, userID string, now time.Time) (*Dashboard, error) {
	since := now.Add(-activityWindow)

	var created []models.TaskItem
	if err := db.Where("created_at >= ?", since).Find(&created).Error; err != nil {
		return nil, err
	}
	var completions []models.TaskCompletion
	if err := db.Where("completed_at >= ?", since).Find(&completions).Error; err != nil {
		return nil, err
	}

	activity := make([]ActivityItem, 0, len(created)+len(completions))
	for _, t := range created {
		activity = append(activity, ActivityItem{
			Type:      "created",
			TaskID:    t.ID,
			Title:     t.Title,
			Timestamp: t.CreatedAt,
		})
	}
	titles := make(map[string]string, len(created))
	for _, t := range created {
		titles[t.ID] = t.Title
	}
	for _, comp := range completions {
		title := titles[comp.TaskID]
		if title == "" {
			var t models.TaskItem
			if err := db.Select("title").Where("id = ?", comp.TaskID).First(&t).Error; err == nil {
				title = t.Title
			}
		}
		activity = append(activity, ActivityItem{
			Type:      "completed",
			TaskID:    comp.TaskID,
			Title:     title,
			UserID:    comp.UserID,
			Timestamp: comp.CompletedAt,
		})
	}
	sort.SliceStable(activity, func(i, j int) bool {
		return activity[i].Timestamp.After(activity[j].Timestamp)
	})
	if len(activity) > activityLimit {
		activity = activity[:activityLimit]
	}

	var stats UserStats
	if err := db.Model(&models.TaskAssignment{}).Where("user_id = ?", userID).Count(&stats.Assigned).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.TaskCompletion{}).Where("user_id = ?", userID).Count(&stats.Completed).Error; err != nil {
		return nil, err
	}
	if stats.Assigned > 0 {
		stats.CompletionPercent = float64(stats.Completed) / float64(stats.Assigned) * 100
	}

	// Most pressing first: earliest due date, tasks without one last.
	var outstanding []models.TaskItem
	err := db.Where("status IN ?", []string{models.StatusPending, models.StatusInProgress}).
		Order("due_date IS NULL, due_date ASC, created_at ASC").
		Limit(outstandingLimit).
		Find(&outstanding).Error
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		RecentActivity: activity,
		Stats:          stats,
		Outstanding:    outstanding,
	}, nil
}
