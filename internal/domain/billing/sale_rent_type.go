package billing

// SaleRentType selects the amount policy applied to a line item for a given
// billing month. The values mirror the DME billing categories defined by
// Medicare and commercial payers.
type SaleRentType string

const (
	// SaleRentTypeOneTimeSale bills the full price once, in month 1
	SaleRentTypeOneTimeSale SaleRentType = "ONE_TIME_SALE"

	// SaleRentTypeReoccurringSale bills like a one-time sale but the order
	// stays open for repeat shipments
	SaleRentTypeReoccurringSale SaleRentType = "REOCCURRING_SALE"

	// SaleRentTypeOneTimeRental bills a single rental period, in month 1
	SaleRentTypeOneTimeRental SaleRentType = "ONE_TIME_RENTAL"

	// SaleRentTypeMedicareOxygenRental bills the full rental price every month
	SaleRentTypeMedicareOxygenRental SaleRentType = "MEDICARE_OXYGEN_RENTAL"

	// SaleRentTypeMonthlyRental bills the full rental price every month
	SaleRentTypeMonthlyRental SaleRentType = "MONTHLY_RENTAL"

	// SaleRentTypeRentToPurchase converts the rental into a purchase at month
	// 10, crediting the nine billed rental months against the sale price
	SaleRentTypeRentToPurchase SaleRentType = "RENT_TO_PURCHASE"

	// SaleRentTypeCappedRental follows the Medicare capped-rental decay
	// schedule: full price months 1-3, 75% months 4-15, then maintenance
	// billing every 6th month starting at month 22
	SaleRentTypeCappedRental SaleRentType = "CAPPED_RENTAL"

	// SaleRentTypeParentalCappedRental bills the full price through month 15
	// before entering the same maintenance cycle as a capped rental
	SaleRentTypeParentalCappedRental SaleRentType = "PARENTAL_CAPPED_RENTAL"
)

// String returns the string representation of SaleRentType
func (t SaleRentType) String() string {
	return string(t)
}

// IsValid returns true if the sale/rent type is valid
func (t SaleRentType) IsValid() bool {
	switch t {
	case SaleRentTypeOneTimeSale,
		SaleRentTypeReoccurringSale,
		SaleRentTypeOneTimeRental,
		SaleRentTypeMedicareOxygenRental,
		SaleRentTypeMonthlyRental,
		SaleRentTypeRentToPurchase,
		SaleRentTypeCappedRental,
		SaleRentTypeParentalCappedRental:
		return true
	}
	return false
}

// IsOneTime returns true for types billed exactly once
func (t SaleRentType) IsOneTime() bool {
	return t == SaleRentTypeOneTimeSale || t == SaleRentTypeOneTimeRental
}

// IsRental returns true for types that bill recurring rental periods
func (t SaleRentType) IsRental() bool {
	switch t {
	case SaleRentTypeOneTimeRental,
		SaleRentTypeMedicareOxygenRental,
		SaleRentTypeMonthlyRental,
		SaleRentTypeRentToPurchase,
		SaleRentTypeCappedRental,
		SaleRentTypeParentalCappedRental:
		return true
	}
	return false
}
