package domain

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether the status is one the back office may set.
// Orders read from the backend may carry other statuses; those are
// displayed as-is but never written back.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// LineItem is one product-quantity pair inside an order. The product is an
// embedded snapshot taken at order time, not a live catalog reference.
type LineItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

type Customer struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
}

type ShippingAddress struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Order struct {
	ID              string          `json:"id"`
	User            Customer        `json:"user"`
	MobileNumber    string          `json:"mobile_number"`
	Items           []LineItem      `json:"products"`
	Status          OrderStatus     `json:"status"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentStatus   string          `json:"payment_status"`
	TotalAmount     float64         `json:"total_amount"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	DeliveryType    string          `json:"delivery_type,omitempty"`
	DeliveryDate    *time.Time      `json:"delivery_date,omitempty"`
	Editable        bool            `json:"editable"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CloneItems returns a copy of the order's line items that shares no backing
// array with the original. Used by the editor to build its working copy.
func (o *Order) CloneItems() []LineItem {
	items := make([]LineItem, len(o.Items))
	copy(items, o.Items)
	return items
}

// HasProduct reports whether any line item references the given product ID.
func (o *Order) HasProduct(productID string) bool {
	for _, it := range o.Items {
		if it.Product.ID == productID {
			return true
		}
	}
	return false
}

// OrdersPage is one page of the backend order listing.
type OrdersPage struct {
	Items      []Order `json:"items"`
	TotalPages int     `json:"total_pages"`
}
