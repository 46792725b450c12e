// Package notify pushes task events to chat platforms (Slack, Discord, etc.).
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/zulandar/taskyard/internal/models"
)

// Message is one outbound notification.
type Message struct {
	Title string
	Body  string
}

// Notifier is the interface platform-specific implementations satisfy.
// Notifiers are send-only: delivery failures are the caller's to log, never
// to propagate into the mutation that produced the event.
type Notifier interface {
	// Name identifies the platform, e.g. "slack", "discord".
	Name() string

	// Send delivers one message.
	Send(ctx context.Context, msg Message) error

	// Close gracefully shuts down the platform connection.
	Close() error
}

// Fanout delivers a message to every notifier, best-effort. Errors are
// logged and swallowed.
func Fanout(ctx context.Context, notifiers []Notifier, msg Message) {
	for _, n := range notifiers {
		if err := n.Send(ctx, msg); err != nil {
			log.Printf("notify: %s: %v", n.Name(), err)
		}
	}
}

// TaskAssigned builds the message for a task handed to one or more users.
func TaskAssigned(t *models.TaskItem, assignees []models.User) Message {
	names := make([]string, 0, len(assignees))
	for _, u := range assignees {
		names = append(names, u.FullName())
	}
	return Message{
		Title: fmt.Sprintf("Task assigned: %s", t.Title),
		Body:  fmt.Sprintf("Assigned to %s", strings.Join(names, ", ")),
	}
}

// TaskAutoCompleted builds the message for a task every assignee has
// checked off.
func TaskAutoCompleted(t *models.TaskItem) Message {
	return Message{
		Title: fmt.Sprintf("Task completed: %s", t.Title),
		Body:  "All assignees have checked this task off.",
	}
}

// ProjectDeleted builds the message for a removed project.
func ProjectDeleted(name string, taskCount int) Message {
	return Message{
		Title: fmt.Sprintf("Project deleted: %s", name),
		Body:  fmt.Sprintf("%d tasks removed with it.", taskCount),
	}
}
