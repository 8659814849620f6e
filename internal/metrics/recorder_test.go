package metrics

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/equipment-rental/internal/persistence"
	"github.com/example/equipment-rental/internal/persistence/memory"
)

func TestRecorder_CountsOperationsAndFailures(t *testing.T) {
	r, err := NewRecorder()
	require.NoError(t, err)

	r.ObserveStoreOperation("rentals", "create", 2*time.Millisecond, nil)
	r.ObserveStoreOperation("rentals", "create", time.Millisecond, errors.New("disk full"))
	r.ObserveStoreOperation("users", "read", time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.operations.WithLabelValues("rentals", "create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("rentals", "create")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.failures.WithLabelValues("users", "read")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.operations))
}

func TestRecorder_WiredIntoStore(t *testing.T) {
	r, err := NewRecorder()
	require.NoError(t, err)
	store := persistence.NewStore(memory.New(), persistence.WithRecorder(r))

	_, err = store.Equipment().Create(context.Background(), persistence.Equipment{Name: "Drill"})
	require.NoError(t, err)

	expected := `
# HELP rentaldesk_store_operations_total Store operations by collection and operation.
# TYPE rentaldesk_store_operations_total counter
rentaldesk_store_operations_total{collection="equipment",operation="create"} 1
rentaldesk_store_operations_total{collection="equipment",operation="read"} 1
`
	require.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "rentaldesk_store_operations_total"))
}

func TestRecorder_WriteText(t *testing.T) {
	r, err := NewRecorder()
	require.NoError(t, err)
	r.ObserveStoreOperation("maintenance", "update", time.Millisecond, nil)

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))
	assert.Contains(t, buf.String(), `rentaldesk_store_operations_total{collection="maintenance",operation="update"} 1`)
	assert.Contains(t, buf.String(), "rentaldesk_store_operation_duration_seconds_bucket")
}
