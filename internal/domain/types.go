package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type GlassItem struct {
	StableID     string
	NaturalKey   string
	Name         string
	Manufacturer string
	SKU          string
	COE          int
	MfrNotes     string
	URL          string
	MfrStatus    string
	ImageURL     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const (
	MfrStatusAvailable    = "available"
	MfrStatusDiscontinued = "discontinued"
)

// Inventory is one (item, type) holding. How it is spread across physical
// places is tracked separately by Location rows.
type Inventory struct {
	ID           string
	ItemStableID string
	Type         string
	Quantity     decimal.Decimal
	Location     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Location is keyed by (InventoryID, Location); there is no surrogate id.
type Location struct {
	InventoryID string
	Location    string
	Quantity    decimal.Decimal
}

type PurchaseRecord struct {
	ID            string
	Supplier      string
	Price         decimal.Decimal
	Currency      string
	DatePurchased *time.Time
	Notes         string
	Items         []PurchaseItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PurchaseItem struct {
	ItemNaturalKey string
	Type           string
	Quantity       decimal.Decimal
	Unit           string
	Price          decimal.Decimal
}

type ProjectPlan struct {
	ID            string
	Title         string
	PlanType      string
	COE           string
	Summary       string
	PriceMin      *decimal.Decimal
	PriceMax      *decimal.Decimal
	IsArchived    bool
	TimesUsed     int
	LastUsedAt    *time.Time
	Tags          []string
	GlassItems    []ProjectGlassItem
	ReferenceURLs []ProjectReferenceURL
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const (
	PlanTypeRecipe     = "recipe"
	PlanTypeIdea       = "idea"
	PlanTypeTechnique  = "technique"
	PlanTypeCommission = "commission"
)

type ProjectLog struct {
	ID            string
	Title         string
	BasedOnPlanID *string
	COE           string
	Notes         string
	Status        string
	ProjectDate   *time.Time
	PricePoint    *decimal.Decimal
	SaleDate      *time.Time
	BuyerInfo     string
	HoursSpent    *decimal.Decimal
	Tags          []string
	Techniques    []string
	GlassItems    []ProjectGlassItem
	ReferenceURLs []ProjectReferenceURL
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const (
	LogStatusInProgress = "in_progress"
	LogStatusCompleted  = "completed"
	LogStatusSold       = "sold"
	LogStatusGifted     = "gifted"
	LogStatusKept       = "kept"
	LogStatusBroken     = "broken"
)

// ProjectGlassItem references a catalog item by natural key. Items that are
// not in the catalog carry a FreeformDescription instead.
type ProjectGlassItem struct {
	ItemNaturalKey      string
	FreeformDescription string
	Quantity            decimal.Decimal
	Unit                string
	Notes               string
}

type ProjectReferenceURL struct {
	URL         string
	Title       string
	Description string
}

type ImageType string

const (
	ImageTypePrimary   ImageType = "primary"
	ImageTypeAlternate ImageType = "alternate"
)

type UserImage struct {
	ID         string
	Owner      Owner
	ImageType  ImageType
	MimeType   string
	StorageKey string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TagCount is a tag with the number of items carrying it.
type TagCount struct {
	Tag   string
	Count int
}
