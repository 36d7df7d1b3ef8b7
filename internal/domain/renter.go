package domain

import "time"

// Renter is the subset of the customer profile the engine reads. Identity and
// documents are owned by external providers; LicenseURL is set once the
// driver's license upload has been stored.
type Renter struct {
	ID         string    `json:"id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	LicenseURL string    `json:"license_url,omitempty"`
	CreatedOn  time.Time `json:"created_on"`
}

func (r *Renter) LicenseOnFile() bool {
	return r.LicenseURL != ""
}
