package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required (renter or admin)
	SecurityAdmin                       // Access token with admin role required
)

// EndpointSecurityConfig maps methods to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Health
	"/grpc.health.v1.Health/Check": SecurityPublic,
	"/grpc.health.v1.Health/Watch": SecurityPublic,

	// UnitService - Public catalogue
	"/motorent.v1.UnitService/GetUnit":   SecurityPublic,
	"/motorent.v1.UnitService/ListUnits": SecurityPublic,

	// UnitService - Admin
	"/motorent.v1.UnitService/SetMaintenance":   SecurityAdmin,
	"/motorent.v1.UnitService/ClearMaintenance": SecurityAdmin,
	"/motorent.v1.UnitService/ReleaseUnit":      SecurityAdmin,

	// ReservationService - Access Protected
	"/motorent.v1.ReservationService/BookReservation":   SecurityAccess,
	"/motorent.v1.ReservationService/CancelReservation": SecurityAccess,
	"/motorent.v1.ReservationService/GetReservation":    SecurityAccess,
	"/motorent.v1.ReservationService/ListReservations":  SecurityAccess,

	// ReservationService - Admin
	"/motorent.v1.ReservationService/ApproveReservation":   SecurityAdmin,
	"/motorent.v1.ReservationService/RejectReservation":    SecurityAdmin,
	"/motorent.v1.ReservationService/CompleteReservation":  SecurityAdmin,
	"/motorent.v1.ReservationService/UpdateAdminNotes":     SecurityAdmin,
	"/motorent.v1.ReservationService/ReconcileReservation": SecurityAdmin,

	// PaymentService - Access Protected
	"/motorent.v1.PaymentService/ListTransactions": SecurityAccess,
	"/motorent.v1.PaymentService/ListPayments":     SecurityAccess,

	// PaymentService - Admin
	"/motorent.v1.PaymentService/MarkPaid":         SecurityAdmin,
	"/motorent.v1.PaymentService/RefundPayment":    SecurityAdmin,
	"/motorent.v1.PaymentService/GetLedgerSummary": SecurityAdmin,

	// NotificationService - Access Protected
	"/motorent.v1.NotificationService/GetNotifications":         SecurityAccess,
	"/motorent.v1.NotificationService/GetUnreadCount":           SecurityAccess,
	"/motorent.v1.NotificationService/MarkNotificationRead":     SecurityAccess,
	"/motorent.v1.NotificationService/MarkAllNotificationsRead": SecurityAccess,
	"/motorent.v1.NotificationService/DeleteAllNotifications":   SecurityAccess,
}

func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	// Unknown endpoints get the strictest level
	return SecurityAdmin
}
