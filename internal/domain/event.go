package domain

// EventType is the closed set of domain events this service emits.
type EventType string

const (
	EventOrderCreated     EventType = "ORDER_CREATED"
	EventOrderConfirmed   EventType = "ORDER_CONFIRMED"
	EventOrderCancelled   EventType = "ORDER_CANCELLED"
	EventInventoryUpdated EventType = "INVENTORY_UPDATED"
)

// Envelope wraps every published event. Timestamp is RFC3339 so that
// consumers of the existing wire format keep parsing it unchanged.
type Envelope struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp string    `json:"timestamp"`
	Service   string    `json:"service"`
}

type OrderItemEvent struct {
	SellerID   string  `json:"sellerId"`
	ProductID  string  `json:"productId"`
	Quantity   int64   `json:"quantity"`
	TotalPrice float64 `json:"totalPrice"`
	Commission float64 `json:"commission"`
}

type OrderCreatedEvent struct {
	OrderID string           `json:"orderId"`
	UserID  string           `json:"userId"`
	Total   float64          `json:"total"`
	Items   []OrderItemEvent `json:"items"`
}

type OrderConfirmedEvent struct {
	OrderID   string `json:"orderId"`
	UserID    string `json:"userId"`
	PaymentID string `json:"paymentId"`
}

type OrderCancelledEvent struct {
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
	Reason  string `json:"reason"`
}

type InventoryUpdatedEvent struct {
	ProductID   string `json:"productId"`
	SellerID    string `json:"sellerId"`
	OldQuantity int64  `json:"oldQuantity"`
	NewQuantity int64  `json:"newQuantity"`
}
