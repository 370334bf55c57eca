// Package registry keeps the step types a workflow may use, their parameter schemas and
// the handlers that execute them.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/dukex/juris/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrUnknownStepType   = errors.New("unknown step type")
	ErrInvalidParameters = errors.New("invalid step parameters")
)

// Descriptor describes a step type and the JSON schema of its parameters.
type Descriptor interface {
	Type() models.StepType
	Name() string
	Description() string
	Schema() map[string]any
}

// Handler is a Descriptor that can also run the step. The output is stored under the
// step's outputVariable; an error is a step failure.
type Handler interface {
	Descriptor
	Execute(ctx context.Context, step *models.WorkflowStep, wctx map[string]any) (any, error)
}

type Registry struct {
	logger      *slog.Logger
	mu          sync.RWMutex
	descriptors map[models.StepType]Descriptor
	handlers    map[models.StepType]Handler
	schemas     map[models.StepType]*gojsonschema.Schema
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:      log.With("module", "registry"),
		descriptors: make(map[models.StepType]Descriptor),
		handlers:    make(map[models.StepType]Handler),
		schemas:     make(map[models.StepType]*gojsonschema.Schema),
	}
}

// Register adds a step type. Descriptors that implement Handler become executable.
// A schema that does not compile is an error.
func (r *Registry) Register(descriptor Descriptor) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(descriptor.Schema()))
	if err != nil {
		return fmt.Errorf("invalid schema for step type %s: %w", descriptor.Type(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.descriptors[descriptor.Type()] = descriptor
	r.schemas[descriptor.Type()] = schema

	if handler, ok := descriptor.(Handler); ok {
		r.handlers[descriptor.Type()] = handler
	}

	r.logger.Debug("registered step type", "type", descriptor.Type())

	return nil
}

// MustRegister is Register for process startup, panicking on a bad schema.
func (r *Registry) MustRegister(descriptors ...Descriptor) {
	for _, descriptor := range descriptors {
		err := r.Register(descriptor)
		if err != nil {
			panic(err)
		}
	}
}

// Handler returns the executable handler for a step type.
func (r *Registry) Handler(stepType models.StepType) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, ok := r.handlers[stepType]

	return handler, ok
}

// Descriptors lists every registered step type sorted by type.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]Descriptor, 0, len(r.descriptors))
	for _, descriptor := range r.descriptors {
		descriptors = append(descriptors, descriptor)
	}

	slices.SortFunc(descriptors, func(a, b Descriptor) int {
		return strings.Compare(string(a.Type()), string(b.Type()))
	})

	return descriptors
}

// ValidateStep checks that the step type is registered and its parameters satisfy the schema.
func (r *Registry) ValidateStep(step *models.WorkflowStep) error {
	r.mu.RLock()
	schema, ok := r.schemas[step.Type]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStepType, step.Type)
	}

	parameters := step.Parameters
	if parameters == nil {
		parameters = map[string]any{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(parameters))
	if err != nil {
		return fmt.Errorf("%w: step %s: %w", ErrInvalidParameters, step.ID, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			messages = append(messages, resultErr.String())
		}

		return fmt.Errorf("%w: step %s: %s", ErrInvalidParameters, step.ID, strings.Join(messages, "; "))
	}

	return nil
}
