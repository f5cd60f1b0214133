package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/vbonduro/glassinv/internal/domain"
)

// glassItemRepository is the subset of store.GlassItemStore that
// InventoryService requires.
type glassItemRepository interface {
	GetByID(ctx context.Context, stableID string) (*domain.GlassItem, error)
}

// inventoryRepository is the subset of store.InventoryStore that
// InventoryService requires.
type inventoryRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Inventory, error)
	ListForItem(ctx context.Context, itemStableID string) ([]*domain.Inventory, error)
	SetQuantity(ctx context.Context, id string, quantity decimal.Decimal) error
}

// locationRepository is the subset of store.LocationStore that
// InventoryService requires.
type locationRepository interface {
	FetchLocations(ctx context.Context, inventoryID string) ([]*domain.Location, error)
	AddQuantity(ctx context.Context, amount decimal.Decimal, location, inventoryID string) (*domain.Location, error)
	SubtractQuantity(ctx context.Context, amount decimal.Decimal, location, inventoryID string) (*domain.Location, error)
	MoveQuantity(ctx context.Context, amount decimal.Decimal, from, to, inventoryID string) error
	SetLocations(ctx context.Context, locations []domain.Location, inventoryID string) error
	TotalQuantity(ctx context.Context, inventoryID string) (decimal.Decimal, error)
	LocationNames(ctx context.Context, prefix string) ([]string, error)
	InventoriesInLocation(ctx context.Context, name string) ([]*domain.Inventory, error)
}

// tagReader is the subset of store.UserTagsStore that InventoryService
// requires.
type tagReader interface {
	Tags(ctx context.Context, itemID string) ([]string, error)
}

// InventoryService coordinates inventory rows with their per-location
// quantities. After every location mutation the inventory quantity is reset
// to the sum of its locations.
type InventoryService struct {
	items     glassItemRepository
	inventory inventoryRepository
	locations locationRepository
	tags      tagReader
	logger    *slog.Logger
}

func NewInventoryService(
	items glassItemRepository,
	inventory inventoryRepository,
	locations locationRepository,
	tags tagReader,
	logger *slog.Logger,
) *InventoryService {
	return &InventoryService{
		items:     items,
		inventory: inventory,
		locations: locations,
		tags:      tags,
		logger:    logger,
	}
}

// InventorySummary is one inventory row with its locations.
type InventorySummary struct {
	*domain.Inventory
	Locations []*domain.Location
}

// ItemSummary bundles a catalog item with everything held of it.
type ItemSummary struct {
	Item        *domain.GlassItem
	Inventories []*InventorySummary
	Tags        []string
	Total       decimal.Decimal
}

func (s *InventoryService) Summary(ctx context.Context, stableID string) (*ItemSummary, error) {
	item, err := s.items.GetByID(ctx, stableID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("item %s: %w", stableID, domain.ErrNotFound)
	}

	inventories, err := s.inventory.ListForItem(ctx, stableID)
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.Tags(ctx, stableID)
	if err != nil {
		return nil, err
	}

	summary := &ItemSummary{Item: item, Tags: tags, Total: decimal.Zero}
	for _, inv := range inventories {
		locations, err := s.locations.FetchLocations(ctx, inv.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list locations for inventory %s: %w", inv.ID, err)
		}
		summary.Inventories = append(summary.Inventories, &InventorySummary{Inventory: inv, Locations: locations})
		summary.Total = summary.Total.Add(inv.Quantity)
	}
	return summary, nil
}

func (s *InventoryService) Locations(ctx context.Context, inventoryID string) ([]*domain.Location, error) {
	if _, err := s.requireInventory(ctx, inventoryID); err != nil {
		return nil, err
	}
	return s.locations.FetchLocations(ctx, inventoryID)
}

func (s *InventoryService) LocationNames(ctx context.Context, prefix string) ([]string, error) {
	return s.locations.LocationNames(ctx, prefix)
}

func (s *InventoryService) InventoriesInLocation(ctx context.Context, name string) ([]*domain.Inventory, error) {
	return s.locations.InventoriesInLocation(ctx, name)
}

func (s *InventoryService) AddToLocation(ctx context.Context, inventoryID, location string, amount decimal.Decimal) (*domain.Location, error) {
	if _, err := s.requireInventory(ctx, inventoryID); err != nil {
		return nil, err
	}
	loc, err := s.locations.AddQuantity(ctx, amount, location, inventoryID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("added to location", "inventory_id", inventoryID, "location", loc.Location, "amount", amount.String())
	return loc, s.syncQuantity(ctx, inventoryID)
}

// RemoveFromLocation returns nil once the location has been emptied.
func (s *InventoryService) RemoveFromLocation(ctx context.Context, inventoryID, location string, amount decimal.Decimal) (*domain.Location, error) {
	if _, err := s.requireInventory(ctx, inventoryID); err != nil {
		return nil, err
	}
	loc, err := s.locations.SubtractQuantity(ctx, amount, location, inventoryID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("removed from location", "inventory_id", inventoryID, "location", location, "amount", amount.String())
	return loc, s.syncQuantity(ctx, inventoryID)
}

func (s *InventoryService) MoveBetweenLocations(ctx context.Context, inventoryID, from, to string, amount decimal.Decimal) error {
	if _, err := s.requireInventory(ctx, inventoryID); err != nil {
		return err
	}
	if err := s.locations.MoveQuantity(ctx, amount, from, to, inventoryID); err != nil {
		return err
	}
	s.logger.Info("moved between locations", "inventory_id", inventoryID, "from", from, "to", to, "amount", amount.String())
	return s.syncQuantity(ctx, inventoryID)
}

func (s *InventoryService) ReplaceLocations(ctx context.Context, inventoryID string, locations []domain.Location) ([]*domain.Location, error) {
	if _, err := s.requireInventory(ctx, inventoryID); err != nil {
		return nil, err
	}
	if err := s.locations.SetLocations(ctx, locations, inventoryID); err != nil {
		return nil, err
	}
	if err := s.syncQuantity(ctx, inventoryID); err != nil {
		return nil, err
	}
	return s.locations.FetchLocations(ctx, inventoryID)
}

func (s *InventoryService) requireInventory(ctx context.Context, inventoryID string) (*domain.Inventory, error) {
	inv, err := s.inventory.GetByID(ctx, inventoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory %s: %w", inventoryID, domain.ErrNotFound)
	}
	return inv, nil
}

func (s *InventoryService) syncQuantity(ctx context.Context, inventoryID string) error {
	total, err := s.locations.TotalQuantity(ctx, inventoryID)
	if err != nil {
		return err
	}
	if err := s.inventory.SetQuantity(ctx, inventoryID, total); err != nil {
		return fmt.Errorf("failed to sync inventory quantity: %w", err)
	}
	s.logger.Debug("inventory quantity synced", "inventory_id", inventoryID, "quantity", total.String())
	return nil
}
