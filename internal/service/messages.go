package service

import (
	"fmt"

	"motorent-backend/internal/domain"
)

func reservationAttributes(r *domain.Reservation) map[string]string {
	return map[string]string{
		"reservation_id": r.ID,
		"unit_id":        r.UnitID,
		"status":         string(r.Status),
		"start_date":     r.StartDate,
		"end_date":       r.EndDate,
	}
}

func bookedNotification(r *domain.Reservation) *domain.Notification {
	return &domain.Notification{
		RecipientID: r.RenterID,
		Title:       "Booking received",
		Message: fmt.Sprintf("We received your booking for %s to %s. Total due on pickup: %s. An admin will review it shortly.",
			r.StartDate, r.EndDate, formatCents(r.TotalPriceCents)),
		Type:       domain.NotificationTypeInfo,
		Attributes: reservationAttributes(r),
	}
}

// transitionNotification builds the renter-facing message for a completed
// lifecycle transition.
func transitionNotification(r *domain.Reservation, action domain.Action, actor domain.Actor, reason string) *domain.Notification {
	n := &domain.Notification{
		RecipientID: r.RenterID,
		Attributes:  reservationAttributes(r),
	}
	switch action {
	case domain.ActionApprove:
		n.Type = domain.NotificationTypeConfirmed
		n.Title = "Reservation confirmed"
		n.Message = fmt.Sprintf("Your reservation for %s to %s is confirmed. Please bring your license and %s in cash on pickup.",
			r.StartDate, r.EndDate, formatCents(r.TotalPriceCents))
	case domain.ActionReject:
		n.Type = domain.NotificationTypeRejected
		n.Title = "Reservation rejected"
		n.Message = fmt.Sprintf("Your reservation for %s to %s was not approved.", r.StartDate, r.EndDate)
	case domain.ActionComplete:
		n.Type = domain.NotificationTypeSuccess
		n.Title = "Rental completed"
		n.Message = fmt.Sprintf("Thanks for riding with us. Your rental from %s to %s is complete.", r.StartDate, r.EndDate)
	case domain.ActionCancel:
		if actor.IsAdmin() {
			n.Type = domain.NotificationTypeWarning
			n.Title = "Reservation cancelled"
			n.Message = fmt.Sprintf("Your reservation for %s to %s was cancelled by our staff.", r.StartDate, r.EndDate)
		} else {
			n.Type = domain.NotificationTypeInfo
			n.Title = "Reservation cancelled"
			n.Message = fmt.Sprintf("You cancelled your reservation for %s to %s.", r.StartDate, r.EndDate)
		}
	}
	if reason != "" {
		n.Message += " Reason: " + reason
		n.Attributes["reason"] = reason
	}
	return n
}

func returnReminderNotification(r *domain.Reservation, overdue bool) *domain.Notification {
	n := &domain.Notification{
		RecipientID: r.RenterID,
		Type:        domain.NotificationTypeWarning,
		Attributes:  reservationAttributes(r),
	}
	if overdue {
		n.Title = "Rental overdue"
		n.Message = fmt.Sprintf("Your rental was due back on %s. Please return the unit as soon as possible.", r.EndDate)
	} else {
		n.Title = "Return reminder"
		n.Message = fmt.Sprintf("Your rental is due back today (%s).", r.EndDate)
	}
	return n
}

func recipientOf(r *domain.Reservation) *domain.Recipient {
	if r.CustomerEmail == "" {
		return nil
	}
	return &domain.Recipient{ID: r.RenterID, Name: r.CustomerName, Email: r.CustomerEmail}
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
