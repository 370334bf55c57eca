package persistence_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dukex/juris/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("record error unwraps to the sentinel", func(t *testing.T) {
		err := persistence.NewRecordError("GetByID", "task", "task-123", persistence.ErrTaskNotFound)

		assert.True(t, errors.Is(err, persistence.ErrTaskNotFound))
		assert.True(t, persistence.IsNotFound(err))
		assert.False(t, persistence.IsWorkflowNotFound(err))
	})

	t.Run("record error contains context", func(t *testing.T) {
		err := persistence.NewRecordError("Save", "workflow", "wf-1", errors.New("disk full"))

		assert.Contains(t, err.Error(), "Save")
		assert.Contains(t, err.Error(), "workflow wf-1")
		assert.Contains(t, err.Error(), "disk full")
		assert.False(t, persistence.IsNotFound(err))
	})

	t.Run("wrapped sentinels are detected", func(t *testing.T) {
		err := fmt.Errorf("loading: %w", persistence.ErrWorkflowNotFound)

		assert.True(t, persistence.IsWorkflowNotFound(err))
		assert.True(t, persistence.IsNotFound(err))
	})
}
