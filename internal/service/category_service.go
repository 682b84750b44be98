package service

import (
	"context"
	"strings"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/events"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/storage"
	"github.com/google/uuid"
)

// CategoryService handles category business logic
type CategoryService struct {
	store     *storage.Adapter
	publisher events.Publisher
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(store *storage.Adapter, publisher events.Publisher) *CategoryService {
	if publisher == nil {
		publisher = events.NoOpPublisher{}
	}
	return &CategoryService{store: store, publisher: publisher}
}

// CreateCategoryInput holds the input for creating a category
type CreateCategoryInput struct {
	Name     string
	Icon     string
	Color    string
	Type     domain.CategoryType
	ParentID *string
}

// UpdateCategoryInput holds the editable fields of a category
type UpdateCategoryInput struct {
	Name  string
	Icon  string
	Color string
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return "", domain.ErrNameTooLong
	}
	return name, nil
}

// GetCategories returns every category in storage order
func (s *CategoryService) GetCategories(ctx context.Context) ([]domain.Category, error) {
	return storage.GetCollection[domain.Category](ctx, s.store, domain.KeyCategories)
}

// GetCategoryTree returns the categories of one type arranged by parent.
// An empty type returns every category.
func (s *CategoryService) GetCategoryTree(ctx context.Context, categoryType domain.CategoryType) ([]*domain.CategoryNode, error) {
	categories, err := s.GetCategories(ctx)
	if err != nil {
		return nil, err
	}

	if categoryType != "" {
		filtered := make([]domain.Category, 0, len(categories))
		for _, c := range categories {
			if c.Type == categoryType {
				filtered = append(filtered, c)
			}
		}
		categories = filtered
	}
	return domain.BuildCategoryTree(categories), nil
}

// CreateCategory validates and stores a new category
func (s *CategoryService) CreateCategory(ctx context.Context, input CreateCategoryInput) (*domain.Category, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}
	if !input.Type.IsValid() {
		return nil, domain.ErrInvalidCategoryType
	}

	category := domain.Category{
		ID:    "c_" + uuid.NewString(),
		Name:  name,
		Icon:  strings.TrimSpace(input.Icon),
		Color: strings.TrimSpace(input.Color),
		Type:  input.Type,
	}
	if category.Icon == "" {
		category.Icon = domain.DefaultCategoryIcon
	}
	if category.Color == "" {
		category.Color = domain.DefaultCategoryColor
	}
	if input.ParentID != nil && *input.ParentID != "" {
		parentID := *input.ParentID
		category.ParentID = &parentID
	}

	err = storage.Mutate(ctx, s.store, domain.KeyCategories, func(categories []domain.Category) ([]domain.Category, error) {
		// Parent must exist at write time
		if category.ParentID != nil {
			if _, ok := domain.FindCategory(categories, *category.ParentID); !ok {
				return nil, domain.ErrParentNotFound
			}
		}
		return append(categories, category), nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.NewEvent(events.EventTypeCreated, events.EntityTypeCategory, category))
	return &category, nil
}

// UpdateCategory changes a category's name, icon and color. Blank icon or
// color keep the current value.
func (s *CategoryService) UpdateCategory(ctx context.Context, id string, input UpdateCategoryInput) (*domain.Category, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}

	var updated domain.Category
	err = storage.Mutate(ctx, s.store, domain.KeyCategories, func(categories []domain.Category) ([]domain.Category, error) {
		for i := range categories {
			if categories[i].ID != id {
				continue
			}
			categories[i].Name = name
			if icon := strings.TrimSpace(input.Icon); icon != "" {
				categories[i].Icon = icon
			}
			if color := strings.TrimSpace(input.Color); color != "" {
				categories[i].Color = color
			}
			updated = categories[i]
			return categories, nil
		}
		return nil, domain.ErrCategoryNotFound
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.NewEvent(events.EventTypeUpdated, events.EntityTypeCategory, updated))
	return &updated, nil
}

// DeleteCategory removes a category and every category below it.
// Transactions referencing them are left untouched.
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	var removed []string
	err := storage.Mutate(ctx, s.store, domain.KeyCategories, func(categories []domain.Category) ([]domain.Category, error) {
		if _, ok := domain.FindCategory(categories, id); !ok {
			return nil, domain.ErrCategoryNotFound
		}

		doomed := domain.DescendantIDs(categories, id)
		kept := make([]domain.Category, 0, len(categories))
		for _, c := range categories {
			if doomed[c.ID] {
				removed = append(removed, c.ID)
				continue
			}
			kept = append(kept, c)
		}
		return kept, nil
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(ctx, events.NewEvent(events.EventTypeDeleted, events.EntityTypeCategory, map[string]any{
		"id":      id,
		"removed": removed,
	}))
	return nil
}

// CategoryUsage reports how many transactions reference a category or one of
// its descendants
type CategoryUsage struct {
	HasTransactions  bool `json:"hasTransactions"`
	TransactionCount int  `json:"transactionCount"`
}

// Usage counts the transactions that would lose their category if id were
// deleted
func (s *CategoryService) Usage(ctx context.Context, id string) (*CategoryUsage, error) {
	categories, err := s.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := domain.FindCategory(categories, id); !ok {
		return nil, domain.ErrCategoryNotFound
	}

	ids := domain.DescendantIDs(categories, id)
	count := 0
	for _, t := range s.store.Transactions(ctx) {
		if ids[t.CategoryID] {
			count++
		}
	}
	return &CategoryUsage{HasTransactions: count > 0, TransactionCount: count}, nil
}
