package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// EngineConfig holds the settings shared by the API and the scheduler.
type EngineConfig struct {
	DatabaseURL           string   `validate:"required"`
	EventBus              string   `validate:"oneof=gochannel memory kafka"`
	KafkaBrokers          []string `validate:"required_if=EventBus kafka,dive,hostname_port"`
	LogLevel              string   `validate:"oneof=debug info warn error"`
	MaxSteps              int      `validate:"gte=1,lte=10000"`
	NotificationQueueSize int      `validate:"gte=1"`
	OTelEnabled           bool
}

// Validate reports every invalid field in one error.
func (c EngineConfig) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	problems := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		problems = append(problems, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}

	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

// SplitList splits a comma separated flag value, dropping empty entries.
func SplitList(value string) []string {
	var items []string

	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}
