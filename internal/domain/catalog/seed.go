package catalog

import (
	"encoding/json"

	"github.com/go-faster/errors"
)

// Seed is the serialized form of a full catalog.
type Seed struct {
	Categories []Category `json:"categories"`
	Products   []Product  `json:"products"`
}

// ParseSeed decodes and validates a catalog seed document.
func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "parse catalog JSON")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every product is sellable and filed under a known
// category and subcategory.
func (s *Seed) Validate() error {
	subcategories := make(map[string]string)
	for _, c := range s.Categories {
		if c.ID == "" {
			return errors.New("category with empty id")
		}
		for _, sc := range c.Subcategories {
			if sc.ID == "" {
				return errors.Errorf("category %s: subcategory with empty id", c.ID)
			}
			subcategories[sc.ID] = c.ID
		}
	}

	ids := make(map[string]struct{}, len(s.Products))
	for _, p := range s.Products {
		if _, dup := ids[p.ID]; dup {
			return errors.Errorf("duplicate product id %q", p.ID)
		}
		ids[p.ID] = struct{}{}

		if p.ID == "" || p.Name == "" || p.Image == "" {
			return errors.Errorf("product %q: id, name and image are required", p.ID)
		}
		if !p.Price.IsPositive() {
			return errors.Errorf("product %s: price must be greater than 0", p.ID)
		}
		category, ok := subcategories[p.Subcategory]
		if !ok {
			return errors.Errorf("product %s: unknown subcategory %q", p.ID, p.Subcategory)
		}
		if category != p.Category {
			return errors.Errorf("product %s: subcategory %s is not in category %s", p.ID, p.Subcategory, p.Category)
		}
	}
	return nil
}
