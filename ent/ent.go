package ent

type Product struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

// ProductPatch is a partial product update. Nil fields are left untouched
// when the patch is merged into the stored document.
type ProductPatch struct {
	Name     *string `json:"name,omitempty"`
	Price    *int64  `json:"price,omitempty"`
	Quantity *int64  `json:"quantity,omitempty"`
}

type Purchase struct {
	CustomerID string `json:"customer_id"`
	ProductID  int64  `json:"product_id"`
	Quantity   int64  `json:"quantity"`
}
