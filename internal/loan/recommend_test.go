package loan

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRecommendByTargetGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	area := decimal.NewFromInt(84)
	cases := []struct {
		name       string
		req        RecommendRequest
		wantTarget string
		wantIDs    []string
	}{
		{"newborn household", RecommendRequest{AnnualIncome: 100_000_000, HousePrice: 700_000_000, ExclusiveArea: area, NetAssets: 300_000_000, NewbornInTwoYears: true, Newlywed: true}, TargetNewborn, []string{"LN-NEWBORN-001"}},
		{"first home", RecommendRequest{AnnualIncome: 60_000_000, HousePrice: 400_000_000, ExclusiveArea: area, NetAssets: 200_000_000, FirstTimeBuyer: true}, TargetFirstHome, []string{"LN-HOME-001"}},
		{"newlywed", RecommendRequest{AnnualIncome: 60_000_000, HousePrice: 400_000_000, ExclusiveArea: area, Newlywed: true}, TargetNewlywed, []string{"LN-JOINT-001"}},
		{"newlywed over income cap", RecommendRequest{AnnualIncome: 80_000_000, HousePrice: 500_000_000, ExclusiveArea: area, Newlywed: true}, TargetGeneral, []string{"LN-CREDIT-001"}},
		{"multi-child without product", RecommendRequest{AnnualIncome: 50_000_000, HousePrice: 300_000_000, ExclusiveArea: area, Children: 2}, TargetGeneral, []string{"LN-CREDIT-001"}},
		{"first home over area cap", RecommendRequest{AnnualIncome: 60_000_000, HousePrice: 400_000_000, ExclusiveArea: decimal.NewFromInt(102), FirstTimeBuyer: true}, TargetGeneral, []string{"LN-CREDIT-001"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := f.svc.Recommend(ctx, tc.req)
			if err != nil {
				t.Fatalf("recommend: %v", err)
			}
			if rec.TargetType != tc.wantTarget {
				t.Fatalf("expected target %s, got %s", tc.wantTarget, rec.TargetType)
			}
			if rec.TotalRecommendations != len(tc.wantIDs) || len(rec.Products) != len(tc.wantIDs) {
				t.Fatalf("expected %v, got %+v", tc.wantIDs, rec.Products)
			}
			for i, id := range tc.wantIDs {
				if rec.Products[i].ID != id {
					t.Fatalf("recommendation %d: expected %s, got %s", i, id, rec.Products[i].ID)
				}
			}
		})
	}
}

func TestRecommendationDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Recommend(ctx, RecommendRequest{AnnualIncome: 60_000_000, HousePrice: 400_000_000, Newlywed: true})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	joint := rec.Products[0]
	if joint.EstimatedInterestRate != "연 3.20%" {
		t.Fatalf("unexpected rate label %q", joint.EstimatedInterestRate)
	}
	want := []string{"경쟁력 있는 금리", "정부지원 최저 수준 금리", "생애최초/신혼부부 등 우대", "부부 공동 대출"}
	if len(joint.KeyFeatures) != len(want) {
		t.Fatalf("expected features %v, got %v", want, joint.KeyFeatures)
	}
	for i := range want {
		if joint.KeyFeatures[i] != want[i] {
			t.Fatalf("feature %d: expected %q, got %q", i, want[i], joint.KeyFeatures[i])
		}
	}
	if rec.Summary != "고객님의 조건에 맞는 1개의 대출 상품을 추천드립니다. 신혼부부 대상 우대 상품을 우선 안내합니다." {
		t.Fatalf("unexpected summary %q", rec.Summary)
	}
	if !rec.RecommendedAt.Equal(f.svc.now()) {
		t.Fatalf("unexpected recommendation date %v", rec.RecommendedAt)
	}
}

func TestRecommendWithoutEligibleProducts(t *testing.T) {
	svc := NewService(NewMemoryRepository(DefaultProducts()[0]), nil, nil)
	rec, err := svc.Recommend(context.Background(), RecommendRequest{AnnualIncome: 90_000_000, HousePrice: 400_000_000})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if rec.TotalRecommendations != 0 || len(rec.Products) != 0 {
		t.Fatalf("expected no products, got %+v", rec.Products)
	}
	if rec.Summary != "고객님의 조건에 맞는 대출 상품이 없습니다. 조건을 조정하여 다시 검토해보세요." {
		t.Fatalf("unexpected summary %q", rec.Summary)
	}

	if _, err := svc.Recommend(context.Background(), RecommendRequest{AnnualIncome: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
