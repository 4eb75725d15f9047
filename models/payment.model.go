package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentStatus defines the status of a provider payment
type PaymentStatus string

const (
	PaymentStatusCaptured PaymentStatus = "CAPTURED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// Payment records one verified provider payment for a course purchase
type Payment struct {
	gorm.Model
	UserID   uint          `gorm:"not null;index" json:"userId"`
	Amount   int64         `gorm:"not null" json:"amount"` // minor units
	Currency string        `gorm:"type:varchar(10)" json:"currency"`
	Status   PaymentStatus `gorm:"type:varchar(20);default:'CAPTURED'" json:"status"`

	// Payment gateway details
	PaymentGateway     string `gorm:"type:varchar(50)" json:"paymentGateway"`
	PaymentOrderID     string `gorm:"type:varchar(100)" json:"paymentOrderId"`
	PaymentID          string `gorm:"type:varchar(100);uniqueIndex" json:"paymentId"`
	PaymentMethod      string `gorm:"type:varchar(50)" json:"paymentMethod"`
	PaymentResponseRaw string `gorm:"type:text" json:"-"`

	// Reference details
	ReferenceType string `gorm:"type:varchar(50)" json:"referenceType"` // course
	ReferenceID   uint   `gorm:"default:0" json:"referenceId"`
	ReferenceName string `gorm:"type:varchar(255)" json:"referenceName"`

	PaidAt time.Time `gorm:"not null" json:"paidAt"`
}

func (Payment) TableName() string {
	return "payments"
}
