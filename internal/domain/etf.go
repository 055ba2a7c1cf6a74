package domain

import "github.com/shopspring/decimal" // Exact decimal arithmetic for ratios

// Etf Model
type Etf struct {
	ID           uint            `gorm:"primaryKey" json:"id"`                                     // Primary key
	Ticker       string          `gorm:"type:varchar(32);not null;index" json:"ticker"`            // Exchange ticker
	Description  string          `gorm:"type:varchar(255)" json:"description"`                     // Free text description
	AssetClass   string          `gorm:"type:varchar(64);index" json:"assetClass"`                 // Equity, bond, ...
	ExpenseRatio decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"expenseRatio"` // Annual expense ratio in percent
	UserID       uint            `gorm:"not null;index" json:"userId"`                             // Owner, fixed at creation
	IsPublic     bool            `gorm:"not null;default:false" json:"isPublic"`                   // Visible to everyone when true
}
