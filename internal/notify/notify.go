// Package notify delivers best-effort push notifications to the household.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// Message is one push notification. Click is an optional link opened from the notification.
type Message struct {
	Title string
	Body  string
	Click string
}

// Notifier sends a notification. Callers treat failures as non-fatal.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(context.Context, Message) error { return nil }

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PlanReady announces a freshly generated plan.
func PlanReady(weekStart string, meals int) Message {
	return Message{
		Title: fmt.Sprintf("Meal Planner for week %s", weekStart),
		Body:  fmt.Sprintf("Your weekly meal plan is ready! %d meals to review.", meals),
	}
}

// ApprovalReminder nags about meals still waiting for approval.
func ApprovalReminder(weekStart string, unapproved int) Message {
	return Message{
		Title: "Meal Planner Reminder",
		Body:  fmt.Sprintf("You have %d unapproved meals for week of %s. Deadline: Sunday 6 PM PT.", unapproved, weekStart),
	}
}
