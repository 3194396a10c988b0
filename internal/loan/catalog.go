package loan

import "github.com/shopspring/decimal"

// DefaultProducts is the catalogue served when no product table is configured.
func DefaultProducts() []Product {
	return []Product{
		{
			ID:            "LN-HOME-001",
			Name:          "내집마련 디딤돌대출",
			LoanType:      "주택담보대출",
			InterestRate:  decimal.RequireFromString("3.85"),
			MaxAmount:     400_000_000,
			MaxTermMonths: 360,
			RepayType:     RepayEqualInstallment,
			TargetType:    TargetFirstHome,
			MaxIncome:     70_000_000,
			MaxHousePrice: 500_000_000,
			MaxAssets:     506_000_000,
			MaxArea:       decimal.NewFromInt(85),
		},
		{
			ID:            "LN-NEWBORN-001",
			Name:          "신생아 특례 디딤돌대출",
			LoanType:      "주택담보대출",
			InterestRate:  decimal.RequireFromString("1.6"),
			MaxAmount:     500_000_000,
			MaxTermMonths: 360,
			RepayType:     RepayEqualInstallment,
			TargetType:    TargetNewborn,
			MaxIncome:     130_000_000,
			MaxHousePrice: 900_000_000,
			MaxAssets:     469_000_000,
			MaxArea:       decimal.NewFromInt(85),
		},
		{
			ID:            "LN-JOINT-001",
			Name:          "신혼부부 공동 전세대출",
			LoanType:      "전세자금대출",
			InterestRate:  decimal.RequireFromString("3.2"),
			MaxAmount:     300_000_000,
			MaxTermMonths: 240,
			RepayType:     RepayEqualPrincipal,
			Joint:         true,
			TargetType:    TargetNewlywed,
			MaxIncome:     75_000_000,
			MaxHousePrice: 600_000_000,
		},
		{
			ID:            "LN-CREDIT-001",
			Name:          "하나 직장인 신용대출",
			LoanType:      "신용대출",
			InterestRate:  decimal.RequireFromString("5.4"),
			MaxAmount:     100_000_000,
			MaxTermMonths: 60,
			RepayType:     RepayBullet,
			TargetType:    TargetGeneral,
		},
	}
}
