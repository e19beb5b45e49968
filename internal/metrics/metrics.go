package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_operations_total",
			Help: "Total reservation operations by outcome",
		},
		[]string{"operation", "status"},
	)

	billsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_bills_generated_total",
			Help: "Total bus bills generated by trigger",
		},
		[]string{"trigger"},
	)

	activeBuses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reservation_active_buses",
			Help: "Current number of active buses",
		},
	)

	activeTickets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reservation_active_tickets",
			Help: "Current number of active tickets",
		},
	)

	availableSeats = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reservation_available_seats",
			Help: "Open seats across all active buses",
		},
	)

	saveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reservation_ledger_save_seconds",
			Help:    "Duration of ledger saves",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Bill triggers
const (
	TriggerFullyBooked = "fully_booked"
	TriggerDeletion    = "deletion"
)

// RecordOperation counts one façade call
func RecordOperation(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	operations.WithLabelValues(operation, status).Inc()
}

// RecordBill counts a generated bill
func RecordBill(trigger string) {
	billsGenerated.WithLabelValues(trigger).Inc()
}

// SetInventory publishes the current ledger gauges
func SetInventory(buses, tickets, seats int) {
	activeBuses.Set(float64(buses))
	activeTickets.Set(float64(tickets))
	availableSeats.Set(float64(seats))
}

// ObserveSave records how long a ledger save took
func ObserveSave(seconds float64) {
	saveDuration.Observe(seconds)
}
