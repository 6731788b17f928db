package models

import (
	"time"

	"gorm.io/gorm"
)

// FinalizedOrder is the archived copy of a draft the customer finalized.
// Conversation sessions themselves are never persisted.
type FinalizedOrder struct {
	gorm.Model
	Reference       string    `json:"reference" gorm:"uniqueIndex"`
	ChatID          string    `json:"chat_id" gorm:"index"`
	CustomerName    string    `json:"customer_name"`
	DeliveryAddress string    `json:"delivery_address"`
	OrderContents   string    `json:"order_contents"`
	PaymentMethod   string    `json:"payment_method"`
	FinalizedAt     time.Time `json:"finalized_at" gorm:"index"`
}
