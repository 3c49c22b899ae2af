package services

import (
	"fmt"
	"time"

	"borgo/internal/domain"
	"borgo/internal/repos"
)

type CapacityService struct {
	Caps *repos.CapacityRepo
}

func NewCapacityService(caps *repos.CapacityRepo) *CapacityService {
	return &CapacityService{Caps: caps}
}

// Day returns the counter for one date. Days never configured are unlimited.
func (s *CapacityService) Day(categoryID, date string) (domain.CapacityDay, error) {
	c, err := s.Caps.Get(categoryID, date)
	if err != nil {
		return c, domain.Persistence("capacity.get", err)
	}
	return c, nil
}

func (s *CapacityService) Range(categoryID string, from, to time.Time) ([]domain.CapacityDay, error) {
	days, err := s.Caps.ListRange(categoryID, from.Format(time.DateOnly), to.Format(time.DateOnly))
	if err != nil {
		return nil, domain.Persistence("capacity.list", err)
	}
	return days, nil
}

// SetMax configures the daily limit; 0 removes it.
func (s *CapacityService) SetMax(categoryID, date string, maxOrders int) (domain.CapacityDay, error) {
	if maxOrders < 0 {
		return domain.CapacityDay{}, fmt.Errorf("%w: max_orders must be >= 0", domain.ErrInvalidSchema)
	}
	if err := s.Caps.UpsertMax(categoryID, date, maxOrders); err != nil {
		return domain.CapacityDay{}, domain.Persistence("capacity.upsert", err)
	}
	return s.Day(categoryID, date)
}

// FullFunc loads the full days of [from, to] once and returns a lookup for
// date enumeration.
func (s *CapacityService) FullFunc(categoryID string, from, to time.Time) (func(iso string) bool, error) {
	full, err := s.Caps.FullDates(categoryID, from.Format(time.DateOnly), to.Format(time.DateOnly))
	if err != nil {
		return nil, domain.Persistence("capacity.full", err)
	}
	return func(iso string) bool { return full[iso] }, nil
}
