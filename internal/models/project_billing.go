package models

import "time"

type BillingType string

const (
	BillingTypeHourly       BillingType = "hourly"
	BillingTypeFixed        BillingType = "fixed"
	BillingTypeSubscription BillingType = "subscription"
	BillingTypePerTask      BillingType = "per_task"
	BillingTypeNonBillable  BillingType = "non_billable"
)

// ProjectBilling holds the billing configuration of a project.
// Limit is the spending cap; 0 means unlimited.
type ProjectBilling struct {
	ID        uint64      `gorm:"primarykey" json:"id"`
	ProjectID uint64      `gorm:"not null;uniqueIndex" json:"project_id"`
	Type      BillingType `gorm:"type:varchar(20);not null;default:'fixed'" json:"type"`
	Limit     float64     `gorm:"type:decimal(10,2);not null;default:0" json:"limit"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	// Relations
	Project Project        `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Quotes  []ProjectQuote `gorm:"foreignKey:ProjectBillingID;constraint:OnDelete:CASCADE" json:"quotes,omitempty"`
}

type QuoteType string

const (
	QuoteTypeDeposit    QuoteType = "deposit"
	QuoteTypeWithdrawal QuoteType = "withdrawal"
	QuoteTypeInvoice    QuoteType = "invoice"
	QuoteTypeRefund     QuoteType = "refund"
)

// ProjectQuote is a single ledger entry under a project's billing setup.
type ProjectQuote struct {
	ID               uint64    `gorm:"primarykey" json:"id"`
	ProjectBillingID uint64    `gorm:"not null;index" json:"project_billing_id"`
	Description      string    `gorm:"type:text" json:"description"`
	QuoteType        QuoteType `gorm:"type:varchar(20);not null;default:'invoice'" json:"quote_type"`
	Amount           float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Relations
	ProjectBilling ProjectBilling `gorm:"foreignKey:ProjectBillingID" json:"-"`
}
