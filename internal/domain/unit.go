package domain

import "time"

type Availability string

const (
	AvailabilityAvailable   Availability = "Available"
	AvailabilityReserved    Availability = "Reserved"
	AvailabilityMaintenance Availability = "In Maintenance"
)

func (a Availability) IsValid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilityReserved, AvailabilityMaintenance:
		return true
	}
	return false
}

// Unit is a rentable motorcycle. ReservedBy is the reservation that holds the
// availability lock while the unit is Reserved.
type Unit struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	PlateNumber    string       `json:"plate_number"`
	DailyRateCents int64        `json:"daily_rate_cents"`
	Availability   Availability `json:"availability"`
	ReservedBy     *string      `json:"reserved_by,omitempty"`
	CreatedOn      time.Time    `json:"created_on"`
	UpdatedOn      time.Time    `json:"updated_on"`
}
