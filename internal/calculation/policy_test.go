package calculation

import "testing"

func TestStressRate(t *testing.T) {
	p := DefaultPolicy()
	assertDecimal(t, "metropolitan", p.StressRate("서울 강남구", d("4")), d("5.5"))
	assertDecimal(t, "other", p.StressRate("부산", d("4")), d("4.75"))
	assertDecimal(t, "no region", p.StressRate("", d("4")), d("4"))
}

func TestLTVLimitFor(t *testing.T) {
	p := DefaultPolicy()
	assertDecimal(t, "regulated", p.LTVLimitFor("서울특별시 강남구", HousingNone), d("40"))
	assertDecimal(t, "first time", p.LTVLimitFor("부산", HousingFirstTime), d("80"))
	assertDecimal(t, "unknown status", p.LTVLimitFor("부산", "기타"), d("70"))
	assertDecimal(t, "multiple homes", p.LTVLimitFor("부산", HousingMultiple), d("0"))
	if p.RegionType("서울 서초구") != RegionTypeRegulated || p.RegionType("대전") != RegionTypeGeneral {
		t.Fatalf("unexpected region types")
	}
}

func TestCollateralRatio(t *testing.T) {
	p := DefaultPolicy()
	assertDecimal(t, "grade 1 clamps high", p.CollateralRatio("1", d("0")), d("100"))
	assertDecimal(t, "grade 3 default", p.CollateralRatio("3", d("80")), d("70"))
	assertDecimal(t, "grade 7 clamps low", p.CollateralRatio("7", d("50")), d("30"))
}

func TestParsePolicyOverlaysDefaults(t *testing.T) {
	src := []byte(`
dsr_limit = 50

ltv "다주택자" {
  regulated = 10
  normal    = 30
}

stress {
  cap = 1
}

collateral {
  grade_adjustments = { "3" = 0 }
}
`)
	p, err := ParsePolicy(src, "policy.hcl")
	if err != nil {
		t.Fatalf("parse policy: %v", err)
	}
	assertDecimal(t, "dsr limit", p.DSRLimit, d("50"))
	assertDecimal(t, "dti limit untouched", p.DTILimit, d("40"))
	assertDecimal(t, "overridden ltv", p.LTVLimitFor("부산", HousingMultiple), d("30"))
	assertDecimal(t, "capped stress", p.StressRate("서울", d("4")), d("5"))
	assertDecimal(t, "grade override", p.CollateralRatio("3", d("80")), d("80"))
}

func TestParsePolicyRejectsUnknownAttributes(t *testing.T) {
	if _, err := ParsePolicy([]byte(`unknown_limit = 3`), "policy.hcl"); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := ParsePolicy([]byte(`dsr_limit = `), "policy.hcl"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadPolicyWithoutPath(t *testing.T) {
	p, err := LoadPolicy("")
	if err != nil {
		t.Fatalf("load default policy: %v", err)
	}
	assertDecimal(t, "default income", p.DefaultAnnualIncome, d("30000000"))
}
