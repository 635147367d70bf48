package catalog

import (
	"context"

	"gorm.io/gorm"
)

// ListParams describes filters applied when listing catalog items.
type ListParams struct {
	Type            ItemType
	IncludeInactive bool
	Limit           int
}

// Repository describes database operations available for catalog items.
type Repository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, itemID string) (*Item, error)
	List(ctx context.Context, params ListParams) ([]Item, error)
	Update(ctx context.Context, item *Item) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns a gorm backed Repository implementation.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, item *Item) error {
	if r == nil || r.db == nil {
		return gorm.ErrInvalidDB
	}
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *gormRepository) GetByID(ctx context.Context, itemID string) (*Item, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var item Item
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *gormRepository) List(ctx context.Context, params ListParams) ([]Item, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	query := r.db.WithContext(ctx).Model(&Item{})

	if params.Type != "" {
		query = query.Where("type = ?", params.Type)
	}
	if !params.IncludeInactive {
		query = query.Where("active = ?", true)
	}
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}

	query = query.Order("created_at DESC")

	var items []Item
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *gormRepository) Update(ctx context.Context, item *Item) error {
	if r == nil || r.db == nil {
		return gorm.ErrInvalidDB
	}

	return r.db.WithContext(ctx).
		Model(&Item{}).
		Where("item_id = ?", item.ItemID).
		Updates(map[string]any{
			"name":       item.Name,
			"price":      item.Price,
			"image_url":  item.ImageURL,
			"is_free":    item.IsFree,
			"active":     item.Active,
			"updated_at": item.UpdatedAt,
		}).Error
}
