package domain

// PendingIntent is an add-to-cart request captured while the shopper was
// anonymous, replayed at most once after sign-in and then discarded whatever
// the outcome.
type PendingIntent struct {
	ProductID         string            `json:"product_id"`
	ProductName       string            `json:"product_name"`
	UnitPrice         int64             `json:"unit_price"`
	Quantity          int               `json:"quantity"`
	VariantAttributes map[string]string `json:"variant_attributes,omitempty"`
}

// LineItem converts the intent into the line item it would add.
func (p PendingIntent) LineItem() LineItem {
	return LineItem{
		ProductID:         p.ProductID,
		ProductName:       p.ProductName,
		UnitPrice:         p.UnitPrice,
		Quantity:          p.Quantity,
		VariantAttributes: p.VariantAttributes,
	}.Clone()
}
