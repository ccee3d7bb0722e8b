package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/ports"
)

// PlanningService manages categories, main category groups, monthly plans and
// category limits. Writes that can change a rare-expense projection drop the
// user's cached summaries.
type PlanningService struct {
	store ports.Store
	rare  *RareExpenseService
}

func NewPlanningService(store ports.Store, rare *RareExpenseService) *PlanningService {
	return &PlanningService{store: store, rare: rare}
}

func (s *PlanningService) invalidate(userID int64) {
	if s.rare != nil {
		s.rare.Invalidate(userID)
	}
}

func (s *PlanningService) CreateCategory(ctx context.Context, userID int64, name string) (core.Category, error) {
	c := core.Category{UserID: userID, Name: strings.TrimSpace(name)}
	if err := c.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return created, nil
}

func (s *PlanningService) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	return s.store.ListCategories(ctx, userID)
}

func (s *PlanningService) CreateMainCategory(ctx context.Context, userID int64, name string) (core.MainCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.MainCategory{}, fmt.Errorf("%w: %v", core.ErrValidation, core.ErrEmptyName)
	}
	created, err := s.store.CreateMainCategory(ctx, core.MainCategory{UserID: userID, Name: name})
	if err != nil {
		return core.MainCategory{}, fmt.Errorf("create main category: %w", err)
	}
	return created, nil
}

// ownedGroupAndCategory checks that both sides of a membership belong to userID
func ownedGroupAndCategory(ctx context.Context, repo ports.Repository, userID, mainCategoryID, categoryID int64) error {
	if _, err := repo.GetMainCategory(ctx, userID, mainCategoryID); err != nil {
		return err
	}
	if _, err := repo.GetCategory(ctx, userID, categoryID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("category %d: %w", categoryID, core.ErrInvalidCategory)
		}
		return err
	}
	return nil
}

func (s *PlanningService) AddCategoryToMainCategory(ctx context.Context, userID, mainCategoryID, categoryID int64) error {
	err := s.store.InTx(ctx, func(repo ports.Repository) error {
		if err := ownedGroupAndCategory(ctx, repo, userID, mainCategoryID, categoryID); err != nil {
			return err
		}
		return repo.AddCategoryToMainCategory(ctx, mainCategoryID, categoryID)
	})
	if err != nil {
		return fmt.Errorf("add category to main category: %w", err)
	}
	s.invalidate(userID)
	return nil
}

func (s *PlanningService) RemoveCategoryFromMainCategory(ctx context.Context, userID, mainCategoryID, categoryID int64) error {
	err := s.store.InTx(ctx, func(repo ports.Repository) error {
		if err := ownedGroupAndCategory(ctx, repo, userID, mainCategoryID, categoryID); err != nil {
			return err
		}
		return repo.RemoveCategoryFromMainCategory(ctx, mainCategoryID, categoryID)
	})
	if err != nil {
		return fmt.Errorf("remove category from main category: %w", err)
	}
	s.invalidate(userID)
	return nil
}

// EnsurePlan returns the user's plan for the month, creating it if needed
func (s *PlanningService) EnsurePlan(ctx context.Context, userID int64, year, month int) (core.Plan, error) {
	p := core.Plan{UserID: userID, Year: year, Month: month}
	if err := p.Validate(); err != nil {
		return core.Plan{}, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}

	err := s.store.InTx(ctx, func(repo ports.Repository) error {
		existing, err := repo.FindPlan(ctx, userID, year, month)
		if err == nil {
			p = existing
			return nil
		}
		if !errors.Is(err, core.ErrNotFound) {
			return err
		}
		p, err = repo.CreatePlan(ctx, p)
		return err
	})
	if err != nil {
		return core.Plan{}, fmt.Errorf("ensure plan: %w", err)
	}
	return p, nil
}

// SetCategoryLimit creates or replaces the limit of a category within a plan
func (s *PlanningService) SetCategoryLimit(ctx context.Context, userID, planID, categoryID int64, limit decimal.Decimal) (core.CategoryLimit, error) {
	l := core.CategoryLimit{UserID: userID, PlanID: planID, CategoryID: categoryID, Limit: limit}
	if err := l.Validate(); err != nil {
		return core.CategoryLimit{}, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}

	err := s.store.InTx(ctx, func(repo ports.Repository) error {
		if _, err := repo.GetPlan(ctx, userID, planID); err != nil {
			return err
		}
		if _, err := repo.GetCategory(ctx, userID, categoryID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("category %d: %w", categoryID, core.ErrInvalidCategory)
			}
			return err
		}
		var err error
		l, err = repo.UpsertCategoryLimit(ctx, l)
		return err
	})
	if err != nil {
		return core.CategoryLimit{}, fmt.Errorf("set category limit: %w", err)
	}
	s.invalidate(userID)
	return l, nil
}

func (s *PlanningService) ListCategoryLimits(ctx context.Context, userID, planID int64) ([]core.CategoryLimit, error) {
	if _, err := s.store.GetPlan(ctx, userID, planID); err != nil {
		return nil, fmt.Errorf("list category limits: %w", err)
	}
	return s.store.ListCategoryLimits(ctx, userID, planID)
}

// ListPlans returns the user's plans of one year, or of every year when year is 0
func (s *PlanningService) ListPlans(ctx context.Context, userID int64, year int) ([]core.Plan, error) {
	if year < 0 {
		return nil, fmt.Errorf("%w: invalid year %d", core.ErrValidation, year)
	}
	plans, err := s.store.ListPlans(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// DeleteCategoryLimit removes a category's limit from a plan
func (s *PlanningService) DeleteCategoryLimit(ctx context.Context, userID, planID, categoryID int64) error {
	if err := s.store.DeleteCategoryLimit(ctx, userID, planID, categoryID); err != nil {
		return fmt.Errorf("delete category limit: %w", err)
	}
	s.invalidate(userID)
	return nil
}

func (s *PlanningService) ListMainCategories(ctx context.Context, userID int64) ([]core.MainCategory, error) {
	groups, err := s.store.ListMainCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list main categories: %w", err)
	}
	return groups, nil
}

// GetMainCategory returns a group together with its member categories
func (s *PlanningService) GetMainCategory(ctx context.Context, userID, id int64) (core.MainCategory, []core.Category, error) {
	group, err := s.store.GetMainCategory(ctx, userID, id)
	if err != nil {
		return core.MainCategory{}, nil, fmt.Errorf("get main category: %w", err)
	}
	members, err := s.store.ListMainCategoryMembers(ctx, userID, id)
	if err != nil {
		return core.MainCategory{}, nil, fmt.Errorf("list main category members: %w", err)
	}
	return group, members, nil
}
