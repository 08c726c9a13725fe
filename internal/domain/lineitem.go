package domain

// SupplierAttrKey is a synthetic key some catalog feeds embed inside the
// variant map. It duplicates the SupplierID field and is excluded from
// variant comparison.
const SupplierAttrKey = "supplier_id"

// LineItem is one distinct purchasable configuration in a cart: a product,
// optionally a supplier, and the chosen variant attributes.
type LineItem struct {
	ProductID         string            `json:"product_id"`
	ProductName       string            `json:"product_name"`
	UnitPrice         int64             `json:"unit_price"`
	Quantity          int               `json:"quantity"`
	ImageURL          string            `json:"image_url,omitempty"`
	SupplierID        string            `json:"supplier_id,omitempty"`
	VariantAttributes map[string]string `json:"variant_attributes,omitempty"`
}

// Subtotal returns the line total in minor currency units.
func (it LineItem) Subtotal() int64 {
	return it.UnitPrice * int64(it.Quantity)
}

// Matches reports whether two line items represent the same purchasable
// thing and should be merged by summing quantities.
//
// Rules: product IDs must be equal; two different declared suppliers never
// match; an item with no variant attributes is distinct from the same
// product with variants; otherwise attributes must agree value-for-value
// over the union of keys. A key present on only one side is a mismatch —
// the conservative choice, favouring duplicate lines over wrong merges.
func (it LineItem) Matches(other LineItem) bool {
	if it.ProductID != other.ProductID {
		return false
	}
	if it.SupplierID != "" && other.SupplierID != "" && it.SupplierID != other.SupplierID {
		return false
	}

	a := variantKeys(it.VariantAttributes)
	b := variantKeys(other.VariantAttributes)

	if (len(a) == 0) != (len(b) == 0) {
		return false
	}
	if len(a) == 0 {
		return true
	}

	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			return false
		}
	}
	return true
}

// variantKeys filters the synthetic supplier key out of an attribute map.
func variantKeys(attrs map[string]string) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		if k == SupplierAttrKey {
			continue
		}
		out[k] = v
	}
	return out
}

// Clone returns a deep copy so snapshots never alias variant maps.
func (it LineItem) Clone() LineItem {
	cp := it
	if it.VariantAttributes != nil {
		cp.VariantAttributes = make(map[string]string, len(it.VariantAttributes))
		for k, v := range it.VariantAttributes {
			cp.VariantAttributes[k] = v
		}
	}
	return cp
}

// Snapshot is an ordered cart state, the unit persisted to either backend.
type Snapshot []LineItem

// Total sums unit price times quantity over all lines, in minor units.
func (s Snapshot) Total() int64 {
	var total int64
	for _, it := range s {
		total += it.Subtotal()
	}
	return total
}

// ItemCount returns the summed quantity across all lines.
func (s Snapshot) ItemCount() int {
	var count int
	for _, it := range s {
		count += it.Quantity
	}
	return count
}

// Clone deep-copies the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for i, it := range s {
		out[i] = it.Clone()
	}
	return out
}

// FindMatch returns the index of the first line matching item, or -1.
func (s Snapshot) FindMatch(item LineItem) int {
	for i := range s {
		if s[i].Matches(item) {
			return i
		}
	}
	return -1
}

// GroupDuplicates collapses a raw list (for example freshly loaded from
// storage) into the minimal snapshot where every pair of matching lines has
// been merged by summing quantities. The first occurrence keeps its position
// and its display fields; later matches fold into it. Idempotent.
func GroupDuplicates(items []LineItem) Snapshot {
	out := make(Snapshot, 0, len(items))
	for _, it := range items {
		if i := out.FindMatch(it); i >= 0 {
			out[i].Quantity += it.Quantity
			continue
		}
		out = append(out, it.Clone())
	}
	return out
}
