package savings

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hana-ti/home-planner/internal/format"
)

const noSavingsMatch = "조건에 맞는 적금 상품을 찾을 수 없습니다. 조건을 조정해보세요."

var (
	twelveHundred = decimal.NewFromInt(1200)
	hundred       = decimal.NewFromInt(100)
	half          = decimal.RequireFromString("0.5")
)

// RecommendRequest describes a saving goal.
type RecommendRequest struct {
	TargetAmount    int64 `json:"targetAmount"`
	RemainingMonths int   `json:"remainingMonths"`
	MonthlySaving   int64 `json:"monthlySaving"`
}

// RecommendedProduct is the best product for a goal and how close it gets.
type RecommendedProduct struct {
	Product
	MonthlyDeposit         int64           `json:"monthlyDeposit"`
	ExpectedMaturityAmount int64           `json:"expectedMaturityAmount"`
	InterestRate           decimal.Decimal `json:"interestRate"`
	AchievementRate        decimal.Decimal `json:"achievementRate"`
}

// Recommendation wraps the pick. Product is nil when nothing fits.
type Recommendation struct {
	Product *RecommendedProduct `json:"recommendedProduct"`
	Comment string              `json:"comment"`
}

// Recommend picks the active product whose deposit range admits the monthly
// saving, scoring half on how close its term is to the remaining months and
// half on its headline rate.
func (s *Service) Recommend(ctx context.Context, req RecommendRequest) (Recommendation, error) {
	if req.TargetAmount <= 0 || req.MonthlySaving <= 0 {
		return Recommendation{}, fmt.Errorf("%w: targetAmount and monthlySaving must be positive", ErrInvalidInput)
	}
	if req.RemainingMonths < 1 || req.RemainingMonths > maxScheduleRows {
		return Recommendation{}, fmt.Errorf("%w: remainingMonths must be between 1 and %d", ErrInvalidInput, maxScheduleRows)
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return Recommendation{}, err
	}

	var best *Product
	var bestScore decimal.Decimal
	for i := range products {
		p := &products[i]
		if p.Status != StatusActive || !depositInRange(*p, req.MonthlySaving) {
			continue
		}
		score := productScore(*p, req.RemainingMonths)
		if best == nil || score.GreaterThan(bestScore) {
			best, bestScore = p, score
		}
	}
	if best == nil {
		return Recommendation{Comment: noSavingsMatch}, nil
	}

	months := best.TermMonths
	if months <= 0 {
		months = req.RemainingMonths
	}
	expected := ExpectedMaturity(req.MonthlySaving, months, best.MaxRate())
	achievement := decimal.NewFromInt(expected).Mul(hundred).DivRound(decimal.NewFromInt(req.TargetAmount), 1)
	return Recommendation{
		Product: &RecommendedProduct{
			Product:                *best,
			MonthlyDeposit:         req.MonthlySaving,
			ExpectedMaturityAmount: expected,
			InterestRate:           best.MaxRate(),
			AchievementRate:        achievement,
		},
		Comment: goalComment(achievement, req.TargetAmount, expected),
	}, nil
}

// ExpectedMaturity is the simple-interest payout of depositing monthly for
// months at annualRate percent.
func ExpectedMaturity(monthly int64, months int, annualRate decimal.Decimal) int64 {
	principal := decimal.NewFromInt(monthly).Mul(decimal.NewFromInt(int64(months)))
	interest := principal.Mul(annualRate).Mul(decimal.NewFromInt(int64(months))).Div(twelveHundred)
	return principal.Add(interest).Round(0).IntPart()
}

func depositInRange(p Product, monthly int64) bool {
	if p.MinDepositAmount > 0 && monthly < p.MinDepositAmount {
		return false
	}
	return p.MaxDepositAmount <= 0 || monthly <= p.MaxDepositAmount
}

// productScore loses two term points per month of mismatch and gains ten rate
// points per percent.
func productScore(p Product, remainingMonths int) decimal.Decimal {
	term := decimal.Zero
	if p.TermMonths > 0 {
		diff := p.TermMonths - remainingMonths
		if diff < 0 {
			diff = -diff
		}
		if pts := 100 - diff*2; pts > 0 {
			term = decimal.NewFromInt(int64(pts))
		}
	}
	rate := p.MaxRate().Mul(decimal.NewFromInt(10))
	return term.Add(rate).Mul(half)
}

func goalComment(achievement decimal.Decimal, target, expected int64) string {
	shortage := format.Won(target - expected)
	switch {
	case achievement.GreaterThanOrEqual(hundred):
		return fmt.Sprintf("목표금액 %s을 달성했습니다! 예상 수령액은 %s입니다.", format.Won(target), format.Won(expected))
	case achievement.GreaterThanOrEqual(decimal.NewFromInt(80)):
		return fmt.Sprintf("목표금액 %s 대비 %s%% 달성. %s의 추가 저축이 필요합니다.", format.Won(target), achievement.StringFixed(1), shortage)
	default:
		return fmt.Sprintf("목표금액 %s 대비 %s%% 달성. 상당한 추가 저축(%s)이 필요합니다.", format.Won(target), achievement.StringFixed(1), shortage)
	}
}
