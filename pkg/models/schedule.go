package models

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrMissingCron is returned when a scheduled workflow has no cron expression.
var ErrMissingCron = errors.New("scheduled workflow requires a cron expression")

// cronParser accepts the standard 5-field format (minute hour day month weekday).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseCron parses a cron expression for a scheduled workflow.
func ParseCron(expression string) (cron.Schedule, error) {
	if expression == "" {
		return nil, ErrMissingCron
	}

	return cronParser.Parse(expression)
}

// NextRunAt returns the next time a scheduled workflow is due after the reference time.
func (w *WorkflowDefinition) NextRunAt(reference time.Time) (time.Time, error) {
	if w.TriggerType != TriggerTypeScheduled || w.Trigger == nil {
		return time.Time{}, ErrMissingCron
	}

	schedule, err := ParseCron(w.Trigger.Cron)
	if err != nil {
		return time.Time{}, err
	}

	return schedule.Next(reference), nil
}
