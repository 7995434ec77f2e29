package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delivery_slots_bookings_created_total",
		Help: "Bookings successfully created.",
	})

	bookingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_slots_bookings_rejected_total",
		Help: "Booking requests rejected, by reason.",
	}, []string{"reason"})
)
