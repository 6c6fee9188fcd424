package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	OrderStatusPending      = "pending"
	OrderStatusInProduction = "in_production"
	OrderStatusCompleted    = "completed"
)

// ValidOrderStatus reports whether s is one of the order status enum values.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusInProduction, OrderStatusCompleted:
		return true
	}
	return false
}

// Timeline holds the four production milestone dates, each either an ISO
// calendar date (YYYY-MM-DD) or null.
type Timeline struct {
	Fabric   *string `json:"fabric"`
	Cutting  *string `json:"cutting"`
	Sewing   *string `json:"sewing"`
	Shipping *string `json:"shipping"`
}

// ProductionOrder is one extracted line item of a production plan. Rows are
// independent documents: there is no batch entity linking the orders from one
// upload, and OrderID carries no uniqueness constraint.
type ProductionOrder struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID    string         `gorm:"column:order_id;not null;index" json:"order_id"`
	StyleCode  string         `gorm:"column:style_code" json:"style_code"`
	Fabric     string         `gorm:"column:fabric" json:"fabric"`
	Color      string         `gorm:"column:color" json:"color"`
	Quantity   int            `gorm:"column:quantity;not null;default:0" json:"quantity"`
	Status     string         `gorm:"column:status;not null;default:'pending';index" json:"status"`
	Timeline   datatypes.JSON `gorm:"column:timeline;type:jsonb" json:"timeline"`
	Brand      string         `gorm:"column:brand" json:"brand"`
	SourceFile string         `gorm:"column:source_file" json:"source_file"`
	RawData    datatypes.JSON `gorm:"column:raw_data;type:jsonb" json:"raw_data"`
	JobID      uuid.UUID      `gorm:"type:uuid;column:job_id;index" json:"job_id"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (ProductionOrder) TableName() string { return "production_order" }
