package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordOperation(t *testing.T) {
	success := testutil.ToFloat64(operations.WithLabelValues("test_op", "success"))
	failure := testutil.ToFloat64(operations.WithLabelValues("test_op", "error"))

	RecordOperation("test_op", nil)
	RecordOperation("test_op", nil)
	RecordOperation("test_op", errors.New("boom"))

	assert.Equal(t, success+2, testutil.ToFloat64(operations.WithLabelValues("test_op", "success")))
	assert.Equal(t, failure+1, testutil.ToFloat64(operations.WithLabelValues("test_op", "error")))
}

func TestRecordBill(t *testing.T) {
	before := testutil.ToFloat64(billsGenerated.WithLabelValues(TriggerDeletion))

	RecordBill(TriggerDeletion)

	assert.Equal(t, before+1, testutil.ToFloat64(billsGenerated.WithLabelValues(TriggerDeletion)))
}

func TestSetInventory(t *testing.T) {
	SetInventory(3, 7, 41)

	assert.Equal(t, 3.0, testutil.ToFloat64(activeBuses))
	assert.Equal(t, 7.0, testutil.ToFloat64(activeTickets))
	assert.Equal(t, 41.0, testutil.ToFloat64(availableSeats))
}

func TestObserveSave(t *testing.T) {
	before := testutil.CollectAndCount(saveDuration)

	ObserveSave(0.01)

	assert.Equal(t, before, testutil.CollectAndCount(saveDuration))
}
