package domain

import "time"

// NotificationType enumerates the user-visible events the core emits.
type NotificationType string

const (
	NotificationDriverMatched   NotificationType = "DRIVER_MATCHED"
	NotificationDriverArriving  NotificationType = "DRIVER_ARRIVING"
	NotificationDriverArrived   NotificationType = "DRIVER_ARRIVED"
	NotificationTripStarted     NotificationType = "TRIP_STARTED"
	NotificationTripCompleted   NotificationType = "TRIP_COMPLETED"
	NotificationRideCancelled   NotificationType = "RIDE_CANCELLED"
	NotificationNoDriversFound  NotificationType = "NO_DRIVERS_FOUND"
	NotificationPaymentSuccess  NotificationType = "PAYMENT_SUCCESS"
	NotificationPaymentFailed   NotificationType = "PAYMENT_FAILED"
)

// RecipientRole identifies who a notification targets.
type RecipientRole string

const (
	RecipientRider  RecipientRole = "rider"
	RecipientDriver RecipientRole = "driver"
)

// Notification is a durable, append-only user-visible event.
type Notification struct {
	ID            string
	RecipientID   string
	RecipientRole RecipientRole
	RideID        string // empty when not ride-scoped
	Type          NotificationType
	Message       string
	CreatedAt     time.Time
}
