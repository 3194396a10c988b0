package loan

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var lowRateThreshold = decimal.NewFromInt(3)

// RecommendRequest describes a household shopping for a mortgage.
type RecommendRequest struct {
	AnnualIncome      int64           `json:"annualIncome"`
	HousePrice        int64           `json:"housePrice"`
	ExclusiveArea     decimal.Decimal `json:"exclusiveArea"`
	NetAssets         int64           `json:"netAssets"`
	FirstTimeBuyer    bool            `json:"isFirstTimeBuyer"`
	Newlywed          bool            `json:"isNewlywed"`
	Children          int             `json:"numberOfChildren"`
	NewbornInTwoYears bool            `json:"hasNewbornInTwoYears"`
}

func (r RecommendRequest) validate() error {
	if r.AnnualIncome < 0 || r.HousePrice < 0 || r.NetAssets < 0 || r.Children < 0 || r.ExclusiveArea.IsNegative() {
		return fmt.Errorf("%w: amounts, area and children must not be negative", ErrInvalidInput)
	}
	return nil
}

// targetType picks the most favourable group the household qualifies for.
func (r RecommendRequest) targetType() string {
	switch {
	case r.NewbornInTwoYears:
		return TargetNewborn
	case r.Newlywed:
		return TargetNewlywed
	case r.Children >= 2:
		return TargetMultiChild
	case r.FirstTimeBuyer:
		return TargetFirstHome
	default:
		return TargetGeneral
	}
}

// RecommendedProduct is a catalogue entry with its selling points.
type RecommendedProduct struct {
	Product
	EstimatedInterestRate string   `json:"estimatedInterestRate"`
	KeyFeatures           []string `json:"keyFeatures"`
}

// Recommendation lists the products a household is eligible for.
type Recommendation struct {
	TargetType           string               `json:"targetType"`
	Products             []RecommendedProduct `json:"recommendations"`
	TotalRecommendations int                  `json:"totalRecommendations"`
	Summary              string               `json:"recommendationSummary"`
	RecommendedAt        time.Time            `json:"recommendationDate"`
}

// Recommend filters the catalogue by the household's income, house price,
// net assets and floor area, then keeps the products of its target group.
// When none of that group remain, general products are offered instead.
// Results are ordered by interest rate.
func (s *Service) Recommend(ctx context.Context, req RecommendRequest) (Recommendation, error) {
	if err := req.validate(); err != nil {
		return Recommendation{}, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return Recommendation{}, err
	}
	var eligible []Product
	for _, p := range products {
		if eligibleFor(p, req) {
			eligible = append(eligible, p)
		}
	}

	target := req.targetType()
	picked := byTarget(eligible, target)
	if len(picked) == 0 && target != TargetGeneral {
		target = TargetGeneral
		picked = byTarget(eligible, target)
	}
	sort.SliceStable(picked, func(i, j int) bool { return picked[i].InterestRate.LessThan(picked[j].InterestRate) })

	out := make([]RecommendedProduct, 0, len(picked))
	for _, p := range picked {
		out = append(out, RecommendedProduct{
			Product:               p,
			EstimatedInterestRate: "연 " + p.InterestRate.StringFixed(2) + "%",
			KeyFeatures:           keyFeatures(p, target),
		})
	}
	return Recommendation{
		TargetType:           target,
		Products:             out,
		TotalRecommendations: len(out),
		Summary:              recommendationSummary(len(out), target),
		RecommendedAt:        s.now(),
	}, nil
}

func eligibleFor(p Product, req RecommendRequest) bool {
	switch {
	case p.MaxIncome > 0 && req.AnnualIncome > p.MaxIncome:
		return false
	case p.MaxHousePrice > 0 && req.HousePrice > p.MaxHousePrice:
		return false
	case p.MaxAssets > 0 && req.NetAssets > p.MaxAssets:
		return false
	case p.MaxArea.IsPositive() && req.ExclusiveArea.GreaterThan(p.MaxArea):
		return false
	}
	return true
}

func byTarget(products []Product, target string) []Product {
	var out []Product
	for _, p := range products {
		t := p.TargetType
		if t == "" {
			t = TargetGeneral
		}
		if t == target {
			out = append(out, p)
		}
	}
	return out
}

func keyFeatures(p Product, target string) []string {
	var features []string
	if p.InterestRate.LessThan(lowRateThreshold) {
		features = append(features, "업계 최저 수준 금리")
	} else {
		features = append(features, "경쟁력 있는 금리")
	}
	switch target {
	case TargetNewborn:
		features = append(features, "높은 소득 및 주택가격 기준", "LTV 최대 80%")
	case TargetNewlywed, TargetMultiChild, TargetFirstHome:
		features = append(features, "정부지원 최저 수준 금리", "생애최초/신혼부부 등 우대")
	default:
		features = append(features, "다양한 금리 옵션", "유연한 상환 조건")
	}
	if p.Joint {
		features = append(features, "부부 공동 대출")
	}
	return features
}

func recommendationSummary(n int, target string) string {
	if n == 0 {
		return "고객님의 조건에 맞는 대출 상품이 없습니다. 조건을 조정하여 다시 검토해보세요."
	}
	summary := fmt.Sprintf("고객님의 조건에 맞는 %d개의 대출 상품을 추천드립니다.", n)
	if target != TargetGeneral {
		summary += fmt.Sprintf(" %s 대상 우대 상품을 우선 안내합니다.", target)
	}
	return summary
}
