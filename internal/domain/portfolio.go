package domain

// Portfolio Model
type Portfolio struct {
	ID       uint   `gorm:"primaryKey" json:"id"`                         // Primary key
	Name     string `gorm:"type:varchar(128);not null;index" json:"name"` // Display name
	UserID   uint   `gorm:"not null;index" json:"userId"`                 // Owner, fixed at creation
	IsPublic bool   `gorm:"not null;default:false" json:"isPublic"`       // Visible to everyone when true
}

// PortfolioEtf links an ETF to a portfolio; each pair appears at most once
type PortfolioEtf struct {
	ID          uint `gorm:"primaryKey" json:"id"`                                      // Primary key
	PortfolioID uint `gorm:"not null;uniqueIndex:idx_portfolio_etf" json:"portfolioId"` // Portfolio side of the pair
	EtfID       uint `gorm:"not null;uniqueIndex:idx_portfolio_etf;index" json:"etfId"` // ETF side of the pair
}
