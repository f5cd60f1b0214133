package domain

import "fmt"

type OwnerKind string

const (
	OwnerGlassItem   OwnerKind = "glass_item"
	OwnerProjectPlan OwnerKind = "project_plan"
	OwnerStandalone  OwnerKind = "standalone"
)

// Owner identifies what a user image belongs to. Standalone owners have no ID.
type Owner struct {
	Kind OwnerKind
	ID   string
}

func GlassItemOwner(stableID string) Owner { return Owner{Kind: OwnerGlassItem, ID: stableID} }

func ProjectPlanOwner(planID string) Owner { return Owner{Kind: OwnerProjectPlan, ID: planID} }

func StandaloneOwner() Owner { return Owner{Kind: OwnerStandalone} }

// Validate rejects unknown kinds and ID/kind mismatches.
func (o Owner) Validate() error {
	switch o.Kind {
	case OwnerGlassItem, OwnerProjectPlan:
		if o.ID == "" {
			return fmt.Errorf("owner %s requires an id", o.Kind)
		}
	case OwnerStandalone:
		if o.ID != "" {
			return fmt.Errorf("standalone owner must not have an id")
		}
	default:
		return fmt.Errorf("unknown owner kind %q", o.Kind)
	}
	return nil
}

func (o Owner) String() string {
	if o.Kind == OwnerStandalone {
		return string(o.Kind)
	}
	return fmt.Sprintf("%s(%s)", o.Kind, o.ID)
}

// ParseOwner is the inverse of the (kind, id) columns stored for an image.
func ParseOwner(kind, id string) (Owner, error) {
	o := Owner{Kind: OwnerKind(kind), ID: id}
	if err := o.Validate(); err != nil {
		return Owner{}, err
	}
	return o, nil
}
