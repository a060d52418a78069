package models

import (
	"fmt"
	"time"
)

// BankRegion selects which payout destination fields apply.
type BankRegion string

const (
	BankRegionUSA    BankRegion = "usa"
	BankRegionEurope BankRegion = "europe"
	BankRegionOthers BankRegion = "others"
)

// PayoutBank is the bank destination for withdrawals. It is stored inline on
// the wallet and never affects balances.
type PayoutBank struct {
	Region        BankRegion `gorm:"type:varchar(20)" json:"region,omitempty"`
	RecipientName string     `gorm:"default:''" json:"recipientName,omitempty"`
	BankName      string     `gorm:"default:''" json:"bankName,omitempty"`
	AccountNumber string     `gorm:"default:''" json:"accountNumber,omitempty"`
	RoutingNumber string     `gorm:"default:''" json:"routingNumber,omitempty"`
	IBAN          string     `gorm:"default:''" json:"iban,omitempty"`
	SwiftCode     string     `gorm:"default:''" json:"swiftCode,omitempty"`
	Description   string     `gorm:"type:text" json:"description,omitempty"`
	DocumentURL   string     `gorm:"default:''" json:"documentUrl,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// Validate checks that the fields required by the region are present.
func (b PayoutBank) Validate() error {
	missing := func(field string) error {
		return fmt.Errorf("%s is required for region %s", field, b.Region)
	}
	switch b.Region {
	case BankRegionUSA:
		switch {
		case b.RecipientName == "":
			return missing("recipientName")
		case b.BankName == "":
			return missing("bankName")
		case b.AccountNumber == "":
			return missing("accountNumber")
		case b.RoutingNumber == "":
			return missing("routingNumber")
		}
	case BankRegionEurope:
		switch {
		case b.RecipientName == "":
			return missing("recipientName")
		case b.AccountNumber == "":
			return missing("accountNumber")
		case b.IBAN == "":
			return missing("iban")
		case b.SwiftCode == "":
			return missing("swiftCode")
		}
	case BankRegionOthers:
		if b.Description == "" {
			return missing("description")
		}
	default:
		return fmt.Errorf("unknown bank region %q", b.Region)
	}
	return nil
}

// CardInfo is the card on file. Only the last four digits are kept and the
// CVV is never persisted.
type CardInfo struct {
	CardHolderName string     `gorm:"default:''" json:"cardHolderName,omitempty"`
	LastFour       string     `gorm:"type:varchar(4);default:''" json:"lastFour,omitempty"`
	ExpiryDate     string     `gorm:"type:varchar(5);default:''" json:"expiryDate,omitempty"`
	FrontImageURL  string     `gorm:"default:''" json:"frontImageUrl,omitempty"`
	BackImageURL   string     `gorm:"default:''" json:"backImageUrl,omitempty"`
	AddedAt        *time.Time `json:"addedAt,omitempty"`
	IsActive       bool       `gorm:"default:false" json:"isActive"`
}
