package web

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vbonduro/glassinv/internal/domain"
	"github.com/vbonduro/glassinv/internal/service"
)

type locationView struct {
	InventoryID string          `json:"inventory_id"`
	Location    string          `json:"location"`
	Quantity    decimal.Decimal `json:"quantity"`
}

func toLocationViews(locs []*domain.Location) []locationView {
	out := make([]locationView, 0, len(locs))
	for _, l := range locs {
		out = append(out, locationView{InventoryID: l.InventoryID, Location: l.Location, Quantity: l.Quantity})
	}
	return out
}

type inventoryView struct {
	ID           string          `json:"id"`
	ItemStableID string          `json:"item_stable_id"`
	Type         string          `json:"type"`
	Quantity     decimal.Decimal `json:"quantity"`
	Locations    []locationView  `json:"locations,omitempty"`
}

func toInventoryView(inv *domain.Inventory) inventoryView {
	return inventoryView{ID: inv.ID, ItemStableID: inv.ItemStableID, Type: inv.Type, Quantity: inv.Quantity}
}

type itemView struct {
	StableID     string `json:"stable_id"`
	NaturalKey   string `json:"natural_key"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	SKU          string `json:"sku"`
	COE          int    `json:"coe"`
	MfrStatus    string `json:"mfr_status"`
	URL          string `json:"url,omitempty"`
}

type summaryView struct {
	Item        itemView        `json:"item"`
	Inventories []inventoryView `json:"inventories"`
	Tags        []string        `json:"tags"`
	Total       decimal.Decimal `json:"total"`
}

func toSummaryView(s *service.ItemSummary) summaryView {
	v := summaryView{
		Item: itemView{
			StableID:     s.Item.StableID,
			NaturalKey:   s.Item.NaturalKey,
			Name:         s.Item.Name,
			Manufacturer: s.Item.Manufacturer,
			SKU:          s.Item.SKU,
			COE:          s.Item.COE,
			MfrStatus:    s.Item.MfrStatus,
			URL:          s.Item.URL,
		},
		Inventories: make([]inventoryView, 0, len(s.Inventories)),
		Tags:        s.Tags,
		Total:       s.Total,
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	for _, inv := range s.Inventories {
		iv := toInventoryView(inv.Inventory)
		iv.Locations = toLocationViews(inv.Locations)
		v.Inventories = append(v.Inventories, iv)
	}
	return v
}

type tagCountView struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type imageView struct {
	ID        string    `json:"id"`
	OwnerKind string    `json:"owner_kind"`
	OwnerID   string    `json:"owner_id,omitempty"`
	ImageType string    `json:"image_type"`
	MimeType  string    `json:"mime_type"`
	CreatedAt time.Time `json:"created_at"`
}

func toImageView(img *domain.UserImage) imageView {
	return imageView{
		ID:        img.ID,
		OwnerKind: string(img.Owner.Kind),
		OwnerID:   img.Owner.ID,
		ImageType: string(img.ImageType),
		MimeType:  img.MimeType,
		CreatedAt: img.CreatedAt,
	}
}
