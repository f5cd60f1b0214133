package legacy

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vbonduro/glassinv/internal/domain"
	"gopkg.in/yaml.v3"
)

// decodeList decodes a serialized array. Older clients wrote JSON; YAML is a
// superset, so one decoder reads both. An empty blob is an empty list.
func decodeList(blob []byte) ([]any, error) {
	if len(strings.TrimSpace(string(blob))) == 0 {
		return nil, nil
	}
	var list []any
	if err := yaml.Unmarshal(blob, &list); err != nil {
		return nil, fmt.Errorf("failed to decode legacy array: %w", err)
	}
	return list, nil
}

func decodeStrings(blob []byte) ([]string, error) {
	list, err := decodeList(blob)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(list))
	for i, v := range list {
		switch entry := v.(type) {
		case nil:
			continue
		case string:
			out = append(out, entry)
		case int, int64, uint64, float64, bool:
			out = append(out, fmt.Sprint(entry))
		default:
			return nil, fmt.Errorf("unexpected entry %d of type %T in legacy string array", i, v)
		}
	}
	return out, nil
}

func decodeGlassItems(blob []byte) ([]domain.ProjectGlassItem, error) {
	list, err := decodeList(blob)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ProjectGlassItem, 0, len(list))
	for _, v := range list {
		switch entry := v.(type) {
		case string:
			if s := strings.TrimSpace(entry); s != "" {
				out = append(out, domain.ProjectGlassItem{FreeformDescription: s})
			}
		case map[string]any:
			gi := domain.ProjectGlassItem{
				ItemNaturalKey:      field(entry, "natural_key", "naturalKey", "item_natural_key", "itemNaturalKey"),
				FreeformDescription: field(entry, "freeform_description", "freeformDescription", "description"),
				Unit:                field(entry, "unit"),
				Notes:               field(entry, "notes"),
			}
			if q := field(entry, "quantity"); q != "" {
				gi.Quantity, err = decimal.NewFromString(q)
				if err != nil {
					return nil, fmt.Errorf("invalid glass item quantity %q: %w", q, err)
				}
			}
			if gi.ItemNaturalKey == "" && gi.FreeformDescription == "" {
				continue
			}
			out = append(out, gi)
		default:
			return nil, fmt.Errorf("unexpected glass item entry of type %T", v)
		}
	}
	return out, nil
}

func decodeReferenceURLs(blob []byte) ([]domain.ProjectReferenceURL, error) {
	list, err := decodeList(blob)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ProjectReferenceURL, 0, len(list))
	for _, v := range list {
		var u domain.ProjectReferenceURL
		switch entry := v.(type) {
		case string:
			u.URL = strings.TrimSpace(entry)
		case map[string]any:
			u = domain.ProjectReferenceURL{
				URL:         field(entry, "url"),
				Title:       field(entry, "title"),
				Description: field(entry, "description"),
			}
		default:
			return nil, fmt.Errorf("unexpected reference url entry of type %T", v)
		}
		if u.URL != "" {
			out = append(out, u)
		}
	}
	return out, nil
}

// field returns the first non-empty value among keys, trimmed.
func field(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				return s
			}
		}
	}
	return ""
}
