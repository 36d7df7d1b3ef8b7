package service

import (
	"context"
	"errors"
	"time"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/repository"

	"github.com/patrickmn/go-cache"
)

type cachedLicenseVerifier struct {
	renterRepo repository.RenterRepository
	cache      *cache.Cache
}

// NewLicenseVerifier checks the renter profile for an uploaded license.
// Only positive answers are cached so a fresh upload is seen immediately.
func NewLicenseVerifier(renterRepo repository.RenterRepository, ttl time.Duration) LicenseVerifier {
	return &cachedLicenseVerifier{
		renterRepo: renterRepo,
		cache:      cache.New(ttl, 2*ttl),
	}
}

func (v *cachedLicenseVerifier) HasLicense(ctx context.Context, renterID string) (bool, error) {
	if _, found := v.cache.Get(renterID); found {
		return true, nil
	}
	renter, err := v.renterRepo.GetByID(ctx, renterID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !renter.LicenseOnFile() {
		return false, nil
	}
	v.cache.SetDefault(renterID, struct{}{})
	return true, nil
}
