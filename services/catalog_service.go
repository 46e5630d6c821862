package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adilzhm/meetmate/models"
	"github.com/adilzhm/meetmate/repositories"
)

type CategoryInput struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	Icon string `json:"icon"`
}

type ActivityInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	CategoryID  int    `json:"category_id"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	IsActive    *bool  `json:"is_active"`
}

type CatalogService interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error)

	ListActivities(ctx context.Context, categoryID *int) ([]models.Activity, error)
	GetActivity(ctx context.Context, id int) (*models.Activity, error)
	CreateActivity(ctx context.Context, input ActivityInput) (*models.Activity, error)
	UpdateActivity(ctx context.Context, id int, input ActivityInput) (*models.Activity, error)
}

type catalogService struct {
	catalogRepo repositories.CatalogRepository
}

func NewCatalogService(catalogRepo repositories.CatalogRepository) CatalogService {
	return &catalogService{catalogRepo: catalogRepo}
}

func (s *catalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.catalogRepo.ListCategories(ctx)
}

func (s *catalogService) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrValidationFailed
	}
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = slugify(name)
	}

	category := &models.Category{Name: name, Slug: slug, Icon: input.Icon}
	if err := s.catalogRepo.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, repositories.ErrCategorySlugConflict) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *catalogService) ListActivities(ctx context.Context, categoryID *int) ([]models.Activity, error) {
	return s.catalogRepo.ListActivities(ctx, categoryID)
}

func (s *catalogService) GetActivity(ctx context.Context, id int) (*models.Activity, error) {
	activity, err := s.catalogRepo.GetActivityByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrActivityNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return activity, nil
}

func (s *catalogService) CreateActivity(ctx context.Context, input ActivityInput) (*models.Activity, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrValidationFailed
	}
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = slugify(name)
	}

	activity := &models.Activity{
		Name:        name,
		Slug:        slug,
		CategoryID:  input.CategoryID,
		Description: input.Description,
		Icon:        input.Icon,
		IsActive:    true,
	}
	if input.IsActive != nil {
		activity.IsActive = *input.IsActive
	}

	if err := s.catalogRepo.CreateActivity(ctx, activity); err != nil {
		switch {
		case errors.Is(err, repositories.ErrActivitySlugConflict):
			return nil, ErrSlugTaken
		case errors.Is(err, repositories.ErrActivityCategoryInvalid):
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}
	return activity, nil
}

func (s *catalogService) UpdateActivity(ctx context.Context, id int, input ActivityInput) (*models.Activity, error) {
	activity, err := s.GetActivity(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		activity.Name = name
	}
	if slug := strings.TrimSpace(input.Slug); slug != "" {
		activity.Slug = slug
	}
	if input.CategoryID != 0 {
		activity.CategoryID = input.CategoryID
	}
	if input.Description != "" {
		activity.Description = input.Description
	}
	if input.Icon != "" {
		activity.Icon = input.Icon
	}
	if input.IsActive != nil {
		activity.IsActive = *input.IsActive
	}

	if err := s.catalogRepo.UpdateActivity(ctx, activity); err != nil {
		switch {
		case errors.Is(err, repositories.ErrActivityNotFound):
			return nil, ErrActivityNotFound
		case errors.Is(err, repositories.ErrActivitySlugConflict):
			return nil, ErrSlugTaken
		case errors.Is(err, repositories.ErrActivityCategoryInvalid):
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}
	return s.GetActivity(ctx, id)
}

// slugify строит URL-имя из произвольного названия: пробелы в дефисы,
// всё лишнее отбрасывается.
func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
