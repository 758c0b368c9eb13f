package order

import (
	"time"

	"github.com/dmebilling/engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the status of an order
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusClosed    Status = "CLOSED"
	StatusCancelled Status = "CANCELLED"
)

// IsValid checks if the status is a valid order Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusConfirmed, StatusShipped, StatusDelivered, StatusClosed, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for statuses that end the order lifecycle
func (s Status) IsTerminal() bool {
	return s == StatusClosed || s == StatusCancelled
}

// ItemStatus represents the status of an order line item
type ItemStatus string

const (
	ItemStatusDraft     ItemStatus = "DRAFT"
	ItemStatusConfirmed ItemStatus = "CONFIRMED"
	ItemStatusShipped   ItemStatus = "SHIPPED"
	ItemStatusDelivered ItemStatus = "DELIVERED"
	ItemStatusClosed    ItemStatus = "CLOSED"
	ItemStatusCancelled ItemStatus = "CANCELLED"
)

// IsValid checks if the status is a valid ItemStatus
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusDraft, ItemStatusConfirmed, ItemStatusShipped, ItemStatusDelivered,
		ItemStatusClosed, ItemStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ItemStatus
func (s ItemStatus) String() string {
	return string(s)
}

// IsTerminal returns true when no further work happens on the item
func (s ItemStatus) IsTerminal() bool {
	return s == ItemStatusDelivered || s == ItemStatusClosed || s == ItemStatusCancelled
}

// Item represents an order line item. The billing engine reads items and
// never mutates them; lifecycle ownership stays with the external
// order-management subsystem.
type Item struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ProductID    uuid.UUID
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	TotalAmount  decimal.Decimal
	Status       ItemStatus
	ShipDate     *time.Time
	DeliveryDate *time.Time
}

// NewItem creates an order line item with the total derived from quantity
// and unit price.
func NewItem(orderID, productID uuid.UUID, quantity, unitPrice decimal.Decimal, status ItemStatus) (*Item, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", "Invalid item status: "+status.String())
	}
	return &Item{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TotalAmount: quantity.Mul(unitPrice).Round(2),
		Status:      status,
	}, nil
}

// Order is the read-only input aggregate for billing runs.
type Order struct {
	ID           uuid.UUID
	CustomerID   uuid.UUID
	OrderDate    time.Time
	ShipDate     *time.Time
	DeliveryDate *time.Time
	Status       Status
	Items        []Item
}

// NewOrder creates an order in the given status.
func NewOrder(customerID uuid.UUID, orderDate time.Time, status Status) (*Order, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", "Invalid order status: "+status.String())
	}
	return &Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		OrderDate:  orderDate,
		Status:     status,
	}, nil
}

// HasNonTerminalItems returns true when any line item still has work
// outstanding.
func (o *Order) HasNonTerminalItems() bool {
	for _, item := range o.Items {
		if !item.Status.IsTerminal() {
			return true
		}
	}
	return false
}

// HasActiveItems returns true when at least one item is not terminal. An
// order whose items are all delivered, closed or cancelled has nothing left
// to bill.
func (o *Order) HasActiveItems() bool {
	return o.HasNonTerminalItems()
}
