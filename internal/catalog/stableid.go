// Package catalog derives the identifiers used to reference catalog glass
// items.
//
// A stable id is a short code derived from the manufacturer and SKU so the
// same product keeps its id across catalog reloads. A natural key is the
// human readable "manufacturer-sku-variant" form.
package catalog

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// alphabet is base62 without I, O and l, which read as 1 and 0.
const alphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz"

const stableIDLen = 6

// StableID returns the 6 character id for manufacturer and code, resolving
// collisions against existing by bumping the last character.
func StableID(manufacturer, code string, existing map[string]struct{}) (string, error) {
	sum := sha256.Sum256([]byte(manufacturer + ":" + code))
	num := binary.BigEndian.Uint32(sum[:4])

	id := make([]byte, stableIDLen)
	base := uint32(len(alphabet))
	for i := stableIDLen - 1; i >= 0; i-- {
		id[i] = alphabet[num%base]
		num /= base
	}

	// Each bump steps the current last character by the attempt number, so
	// offsets from the hashed id accumulate as 1, 3, 6, 10...
	candidate := string(id)
	cur := strings.IndexByte(alphabet, id[stableIDLen-1])
	for attempt := 1; ; attempt++ {
		if _, taken := existing[candidate]; !taken {
			return candidate, nil
		}
		if attempt > len(alphabet) {
			return "", fmt.Errorf("unable to resolve stable id collision for %s:%s after %d attempts", manufacturer, code, attempt)
		}
		cur = (cur + attempt) % len(alphabet)
		id[stableIDLen-1] = alphabet[cur]
		candidate = string(id)
	}
}

// NaturalKey builds "manufacturer-sku-variant" in lowercase with spaces
// replaced by hyphens.
func NaturalKey(manufacturer, sku string, variant int) string {
	clean := func(s string) string {
		return strings.ToLower(strings.Join(strings.Fields(s), "-"))
	}
	return fmt.Sprintf("%s-%s-%d", clean(manufacturer), clean(sku), variant)
}

// ParseNaturalKey splits a natural key into manufacturer, sku and variant.
// The sku may itself contain hyphens.
func ParseNaturalKey(key string) (manufacturer, sku string, variant int, err error) {
	first := strings.IndexByte(key, '-')
	last := strings.LastIndexByte(key, '-')
	if first <= 0 || last <= first+1 || last == len(key)-1 {
		return "", "", 0, fmt.Errorf("malformed natural key %q", key)
	}
	variant, err = strconv.Atoi(key[last+1:])
	if err != nil {
		return "", "", 0, fmt.Errorf("malformed natural key variant %q: %w", key, err)
	}
	return key[:first], key[first+1 : last], variant, nil
}
