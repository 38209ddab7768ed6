package service

import (
	"errors"
	"fmt"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/apperrors"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/repository"
)

// RulesService owns the harvest rules row. Rules are read as a whole and
// replaced as a whole; nothing patches individual thresholds while an
// evaluation is in flight.
type RulesService struct {
	rulesRepo *repository.RulesRepository
}

// NewRulesService creates a new RulesService with the provided repository dependencies.
func NewRulesService(rulesRepo *repository.RulesRepository) *RulesService {
	return &RulesService{
		rulesRepo: rulesRepo,
	}
}

// GetRules returns the stored rules, falling back to the defaults when the
// operator has never saved any.
func (s *RulesService) GetRules() (model.RulesConfig, error) {
	rules, err := s.rulesRepo.Get()
	if errors.Is(err, apperrors.ErrRulesNotFound) {
		return model.DefaultRules(), nil
	}
	if err != nil {
		return model.RulesConfig{}, fmt.Errorf("failed to load harvest rules: %w", err)
	}

	return rules, nil
}

// UpdateRules replaces the stored rules wholesale.
func (s *RulesService) UpdateRules(rules model.RulesConfig) error {
	return s.rulesRepo.Save(rules)
}
