package savings

import "github.com/shopspring/decimal"

// DefaultProducts is the catalogue served when no product table is configured.
func DefaultProducts() []Product {
	return []Product{
		{
			ID:                       "SAV-HOME-001",
			Name:                     "내 집 마련 적금",
			Type:                     ProductSaving,
			PaymentMethod:            "정액적립식",
			CompoundInterest:         false,
			TaxPreference:            true,
			PaymentDelayMonths:       3,
			EarlyWithdrawPenaltyRate: decimal.RequireFromString("1.0"),
			BaseInterestRate:         decimal.RequireFromString("2.5"),
			PreferentialInterestRate: decimal.RequireFromString("2.0"),
			TermMonths:               24,
			MinDepositAmount:         100_000,
			MaxDepositAmount:         1_000_000,
			InterestPaymentMethod:    "만기일시지급",
			Status:                   StatusActive,
		},
		{
			ID:                       "SAV-JOINT-001",
			Name:                     "신혼 공동 적금",
			Type:                     ProductJointSaving,
			PaymentMethod:            "자유적립식",
			CompoundInterest:         true,
			TaxPreference:            false,
			PaymentDelayMonths:       3,
			EarlyWithdrawPenaltyRate: decimal.RequireFromString("1.0"),
			BaseInterestRate:         decimal.RequireFromString("2.5"),
			PreferentialInterestRate: decimal.RequireFromString("1.7"),
			TermMonths:               12,
			MinDepositAmount:         50_000,
			MaxDepositAmount:         500_000,
			InterestPaymentMethod:    "만기일시지급",
			Status:                   StatusActive,
		},
	}
}
