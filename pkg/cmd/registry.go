// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/dukex/juris/pkg/documents"
	"github.com/dukex/juris/pkg/notification"
	"github.com/dukex/juris/pkg/persistence"
	"github.com/dukex/juris/pkg/registry"
	"github.com/dukex/juris/pkg/steps"
)

// NewRegistry registers the built-in step types.
func NewRegistry(logger *slog.Logger, p persistence.Persistence, notifier notification.Notifier) *registry.Registry {
	reg := registry.NewRegistry(logger)

	steps.RegisterDefaults(reg, steps.Dependencies{
		Logger:    logger,
		Templates: p.TemplateRepository(),
		Analyzer:  documents.NewAnalyzer(),
		Notifier:  notifier,
	})

	return reg
}
