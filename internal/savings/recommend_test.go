package savings

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRecommendScoresTermAndRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := []struct {
		name        string
		req         RecommendRequest
		wantProduct string
		wantAmount  int64
		wantComment string
	}{
		{"short goal prefers matching term", RecommendRequest{TargetAmount: 2_400_000, RemainingMonths: 12, MonthlySaving: 200_000}, "SAV-JOINT-001", 2_500_800, "달성했습니다"},
		{"long goal prefers matching term", RecommendRequest{TargetAmount: 10_000_000, RemainingMonths: 24, MonthlySaving: 200_000}, "SAV-HOME-001", 5_232_000, "상당한 추가 저축(4,768,000원)"},
		{"deposit above joint ceiling", RecommendRequest{TargetAmount: 8_400_000, RemainingMonths: 12, MonthlySaving: 700_000}, "SAV-HOME-001", 18_312_000, "달성했습니다"},
		{"close to target", RecommendRequest{TargetAmount: 3_000_000, RemainingMonths: 12, MonthlySaving: 200_000}, "SAV-JOINT-001", 2_500_800, "83.4% 달성. 499,200원의 추가 저축"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := f.svc.Recommend(ctx, tc.req)
			if err != nil {
				t.Fatalf("recommend: %v", err)
			}
			if rec.Product == nil || rec.Product.ID != tc.wantProduct {
				t.Fatalf("expected %s, got %+v", tc.wantProduct, rec.Product)
			}
			if rec.Product.ExpectedMaturityAmount != tc.wantAmount {
				t.Fatalf("expected maturity %d, got %d", tc.wantAmount, rec.Product.ExpectedMaturityAmount)
			}
			if !strings.Contains(rec.Comment, tc.wantComment) {
				t.Fatalf("comment %q does not mention %q", rec.Comment, tc.wantComment)
			}
		})
	}
}

func TestRecommendWithoutMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Recommend(ctx, RecommendRequest{TargetAmount: 1_000_000, RemainingMonths: 12, MonthlySaving: 20_000})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if rec.Product != nil || rec.Comment != noSavingsMatch {
		t.Fatalf("expected no recommendation, got %+v", rec)
	}

	if _, err := f.svc.Recommend(ctx, RecommendRequest{TargetAmount: 0, RemainingMonths: 12, MonthlySaving: 20_000}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.svc.Recommend(ctx, RecommendRequest{TargetAmount: 1_000_000, RemainingMonths: 0, MonthlySaving: 20_000}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for remaining months, got %v", err)
	}
}

func TestExpectedMaturity(t *testing.T) {
	if got := ExpectedMaturity(100_000, 12, decimal.RequireFromString("3")); got != 1_236_000 {
		t.Fatalf("expected 1236000, got %d", got)
	}
	if got := ExpectedMaturity(100_000, 12, decimal.Zero); got != 1_200_000 {
		t.Fatalf("expected principal only, got %d", got)
	}
}
