package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/logger"
	"motorent-backend/internal/repository"
)

type availabilityService struct {
	unitRepo        repository.UnitRepository
	reservationRepo repository.ReservationRepository
	locks           *keyedMutex
	timeout         time.Duration
	now             func() time.Time
}

func NewAvailabilityService(unitRepo repository.UnitRepository, reservationRepo repository.ReservationRepository, timeout time.Duration) AvailabilityService {
	return &availabilityService{
		unitRepo:        unitRepo,
		reservationRepo: reservationRepo,
		locks:           newKeyedMutex(),
		timeout:         timeout,
		now:             time.Now,
	}
}

func (s *availabilityService) Lock(ctx context.Context, unitID, reservationID string) error {
	logger.EnterMethod("availabilityService.Lock", "unitID", unitID, "reservationID", reservationID)
	unlock := s.locks.Lock(unitID)
	defer unlock()

	sctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	acquired, err := s.unitRepo.TryReserve(sctx, unitID, reservationID)
	if err != nil {
		logger.ExitMethodWithError("availabilityService.Lock", err, "unitID", unitID)
		return fmt.Errorf("failed to lock unit %s: %w", unitID, err)
	}
	if acquired {
		logger.ExitMethod("availabilityService.Lock", "unitID", unitID, "holder", reservationID)
		return nil
	}

	unit, err := s.unitRepo.GetByID(sctx, unitID)
	if err != nil {
		return err
	}
	logger.Info("Unit lock refused", "unitID", unitID, "reservationID", reservationID, "availability", unit.Availability, "reservedBy", unit.ReservedBy)
	return fmt.Errorf("%w: unit %s is %s", domain.ErrUnitUnavailable, unitID, unit.Availability)
}

func (s *availabilityService) Release(ctx context.Context, unitID string) error {
	return s.release(ctx, unitID, "")
}

func (s *availabilityService) ReleaseHold(ctx context.Context, unitID, reservationID string) error {
	return s.release(ctx, unitID, reservationID)
}

func (s *availabilityService) release(ctx context.Context, unitID, holder string) error {
	unlock := s.locks.Lock(unitID)
	defer unlock()

	sctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	released, err := s.unitRepo.ReleaseReserved(sctx, unitID, holder)
	if err != nil {
		return fmt.Errorf("failed to release unit %s: %w", unitID, err)
	}
	// Nothing released means the unit was Available already, in
	// maintenance, or held by someone else. All of these are left as is.
	logger.Debug("Unit release", "unitID", unitID, "holder", holder, "released", released)
	return nil
}

func (s *availabilityService) SetMaintenance(ctx context.Context, unitID string) error {
	unlock := s.locks.Lock(unitID)
	defer unlock()

	sctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.unitRepo.SetAvailability(sctx, unitID, domain.AvailabilityMaintenance, nil); err != nil {
		return fmt.Errorf("failed to set unit %s in maintenance: %w", unitID, err)
	}
	logger.Info("Unit set in maintenance", "unitID", unitID)
	return nil
}

func (s *availabilityService) ClearMaintenance(ctx context.Context, unitID string) error {
	unlock := s.locks.Lock(unitID)
	defer unlock()

	unit, err := s.getUnit(ctx, unitID)
	if err != nil {
		return err
	}
	if unit.Availability != domain.AvailabilityMaintenance {
		return nil
	}
	after, err := s.converge(ctx, unit)
	if err != nil {
		return err
	}
	logger.Info("Unit maintenance cleared", "unitID", unitID, "availability", after)
	return nil
}

func (s *availabilityService) Converge(ctx context.Context, unitID string) (domain.Availability, domain.Availability, error) {
	unlock := s.locks.Lock(unitID)
	defer unlock()

	unit, err := s.getUnit(ctx, unitID)
	if err != nil {
		return "", "", err
	}
	before := unit.Availability
	if before == domain.AvailabilityMaintenance {
		return before, before, nil
	}
	after, err := s.converge(ctx, unit)
	return before, after, err
}

// approvalGrace is how long a unit held by a pending reservation is treated
// as an approval in flight. Past it the hold is considered abandoned.
const approvalGrace = 2 * time.Minute

// converge must be called with the unit lock held. The write is a
// compare-and-set against the unit as read, since approvals in other
// processes do not take this lock.
func (s *availabilityService) converge(ctx context.Context, unit *domain.Unit) (domain.Availability, error) {
	sctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	want := domain.AvailabilityAvailable
	var holder *string
	confirmed, err := s.reservationRepo.GetConfirmedByUnit(sctx, unit.ID)
	switch {
	case err == nil:
		want = domain.AvailabilityReserved
		holder = &confirmed.ID
	case !errors.Is(err, domain.ErrNotFound):
		return unit.Availability, fmt.Errorf("failed to look up holder of unit %s: %w", unit.ID, err)
	case unit.Availability == domain.AvailabilityReserved && unit.ReservedBy != nil:
		held, err := s.reservationRepo.GetByID(sctx, *unit.ReservedBy)
		switch {
		case err == nil && held.Status == domain.ReservationStatusConfirmed:
			// Confirmed after the lookup above.
			want = domain.AvailabilityReserved
			holder = &held.ID
		case err == nil && held.Status == domain.ReservationStatusPending && s.now().Sub(unit.UpdatedOn) < approvalGrace:
			logger.Info("Unit held by an approval in flight, leaving it", "unitID", unit.ID, "reservationID", held.ID)
			return unit.Availability, nil
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return unit.Availability, fmt.Errorf("failed to look up reservation %s holding unit %s: %w", *unit.ReservedBy, unit.ID, err)
		}
	}

	if unit.Availability == want && sameHolder(unit.ReservedBy, holder) {
		return want, nil
	}
	swapped, err := s.unitRepo.SwapAvailability(sctx, unit.ID, unit.Availability, unit.ReservedBy, want, holder)
	if err != nil {
		return unit.Availability, fmt.Errorf("failed to set unit %s availability: %w", unit.ID, err)
	}
	if !swapped {
		current, err := s.unitRepo.GetByID(sctx, unit.ID)
		if err != nil {
			return unit.Availability, nil
		}
		logger.Info("Unit changed during convergence, skipped", "unitID", unit.ID, "read", unit.Availability, "current", current.Availability)
		return current.Availability, nil
	}
	logger.Info("Unit availability converged", "unitID", unit.ID, "from", unit.Availability, "to", want)
	return want, nil
}

func sameHolder(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *availabilityService) getUnit(ctx context.Context, unitID string) (*domain.Unit, error) {
	sctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()
	return s.unitRepo.GetByID(sctx, unitID)
}

func (s *availabilityService) GetUnit(ctx context.Context, unitID string) (*domain.Unit, error) {
	return s.getUnit(ctx, unitID)
}

func (s *availabilityService) ListUnits(ctx context.Context, availability domain.Availability) ([]domain.Unit, error) {
	if availability != "" && !availability.IsValid() {
		return nil, domain.NewValidationError("availability", fmt.Sprintf("unknown availability %q", availability))
	}
	return s.unitRepo.List(ctx, availability)
}
