package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"bookshala-commerce/pkg/errutil"
)

type Service struct {
	node  *snowflake.Node
	items Repository
}

type ServiceParams struct {
	fx.In
	Node  *snowflake.Node
	Items Repository
}

func NewService(p ServiceParams) *Service {
	return &Service{
		node:  p.Node,
		items: p.Items,
	}
}

type CreateItemRequest struct {
	Type     ItemType `json:"type" binding:"required"`
	Name     string   `json:"name" binding:"required"`
	Price    float64  `json:"price"`
	ImageURL string   `json:"image_url"`
	IsFree   bool     `json:"is_free"`
}

func (s *Service) Create(ctx context.Context, req CreateItemRequest) (*Item, error) {
	if !req.Type.Valid() {
		return nil, errutil.BadRequest("unknown item type", nil)
	}
	if req.Price < 0 {
		return nil, errutil.BadRequest("price must not be negative", nil)
	}
	if req.IsFree {
		req.Price = 0
	}

	item := &Item{
		ItemID:   s.node.Generate().String(),
		Type:     req.Type,
		Name:     req.Name,
		Price:    req.Price,
		ImageURL: req.ImageURL,
		IsFree:   req.IsFree,
		Active:   true,
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, errutil.Internal("failed to create item", err)
	}
	return item, nil
}

type UpdateItemRequest struct {
	Name     string  `json:"name" binding:"required"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url"`
	IsFree   bool    `json:"is_free"`
	Active   bool    `json:"active"`
}

func (s *Service) Update(ctx context.Context, itemID string, req UpdateItemRequest) (*Item, error) {
	item, err := s.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if req.Price < 0 {
		return nil, errutil.BadRequest("price must not be negative", nil)
	}
	if req.IsFree {
		req.Price = 0
	}

	item.Name = req.Name
	item.Price = req.Price
	item.ImageURL = req.ImageURL
	item.IsFree = req.IsFree
	item.Active = req.Active
	item.UpdatedAt = time.Now()

	if err := s.items.Update(ctx, item); err != nil {
		return nil, errutil.Internal("failed to update item", err)
	}
	return item, nil
}

func (s *Service) Get(ctx context.Context, itemID string) (*Item, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errutil.NotFound("item not found", err)
		}
		return nil, errutil.Internal("failed to fetch item", err)
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Item, error) {
	items, err := s.items.List(ctx, params)
	if err != nil {
		return nil, errutil.Internal("failed to list items", err)
	}
	return items, nil
}
