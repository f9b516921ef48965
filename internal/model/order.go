package model

import "time"

// Order is one row of the POS payment export, already materialised in memory.
type Order struct {
	InvoiceNumber  string    `json:"invoice_number"`
	OrderID        string    `json:"order_id"`
	CheckoutTime   time.Time `json:"checkout_time"`
	OrderSource    string    `json:"order_source"`
	OrderType      string    `json:"order_type"`
	DiscountAmount float64   `json:"discount_amount"`
	InvoiceAmount  float64   `json:"invoice_amount"`
	PaymentMethod  string    `json:"payment_method"`
	Status         string    `json:"order_status"`
	ItemsText      string    `json:"items_text"`
}

// ModifierRecord is one aggregated add-on row from the modifier ledger.
type ModifierRecord struct {
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	Name             string  `json:"name"`
	Count            int     `json:"count"`
	TotalPriceChange float64 `json:"total_price_change"`
}
