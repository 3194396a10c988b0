package calculation

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"
)

// Housing statuses accepted by the LTV table.
const (
	HousingNone          = "무주택자"
	HousingTemporaryOne  = "일시적1주택"
	HousingNewlywed      = "신혼부부"
	HousingFirstTime     = "생애최초"
	HousingMultiple      = "다주택자"
	RegionTypeRegulated  = "투기과열지구"
	RegionTypeGeneral    = "일반지역"
	defaultGradeFallback = -10
)

// LTVLimit is the pair of limits applied to one housing status.
type LTVLimit struct {
	Regulated decimal.Decimal
	Normal    decimal.Decimal
}

// Policy holds every tunable number the calculators use.
type Policy struct {
	LTV                    map[string]LTVLimit
	RegulatedDistricts     []string
	MetropolitanRegions    []string
	StressMetropolitan     decimal.Decimal
	StressOther            decimal.Decimal
	StressCap              decimal.Decimal
	DSRLimit               decimal.Decimal
	DTILimit               decimal.Decimal
	WarningThreshold       decimal.Decimal
	LTVWarningThreshold    decimal.Decimal
	DefaultAnnualIncome    decimal.Decimal
	AssumedRemainingMonths int
	CollateralBase         decimal.Decimal
	CollateralMin          decimal.Decimal
	CollateralMax          decimal.Decimal
	GradeDefaultAdjustment decimal.Decimal
	GradeAdjustments       map[string]decimal.Decimal
}

// DefaultPolicy returns the lending rules in force when no policy file is configured.
func DefaultPolicy() Policy {
	return Policy{
		LTV: map[string]LTVLimit{
			HousingNone:         {Regulated: decimal.NewFromInt(40), Normal: decimal.NewFromInt(70)},
			HousingTemporaryOne: {Regulated: decimal.NewFromInt(40), Normal: decimal.NewFromInt(70)},
			HousingNewlywed:     {Regulated: decimal.NewFromInt(40), Normal: decimal.NewFromInt(70)},
			HousingFirstTime:    {Regulated: decimal.NewFromInt(70), Normal: decimal.NewFromInt(80)},
			HousingMultiple:     {Regulated: decimal.Zero, Normal: decimal.Zero},
		},
		RegulatedDistricts:     []string{"강남구", "서초구", "송파구", "용산구"},
		MetropolitanRegions:    []string{"서울", "경기", "인천"},
		StressMetropolitan:     decimal.RequireFromString("1.5"),
		StressOther:            decimal.RequireFromString("0.75"),
		StressCap:              decimal.NewFromInt(5),
		DSRLimit:               decimal.NewFromInt(40),
		DTILimit:               decimal.NewFromInt(40),
		WarningThreshold:       decimal.NewFromInt(5),
		LTVWarningThreshold:    decimal.NewFromInt(5),
		DefaultAnnualIncome:    decimal.NewFromInt(30_000_000),
		AssumedRemainingMonths: 60,
		CollateralBase:         decimal.NewFromInt(100),
		CollateralMin:          decimal.NewFromInt(30),
		CollateralMax:          decimal.NewFromInt(100),
		GradeDefaultAdjustment: decimal.NewFromInt(defaultGradeFallback),
		GradeAdjustments: map[string]decimal.Decimal{
			"1": decimal.NewFromInt(5),
			"2": decimal.NewFromInt(2),
			"4": decimal.NewFromInt(-5),
			"5": decimal.NewFromInt(-10),
			"6": decimal.NewFromInt(-20),
			"7": decimal.NewFromInt(-30),
		},
	}
}

type hclPolicyFile struct {
	DSRLimit               *float64         `hcl:"dsr_limit,optional"`
	DTILimit               *float64         `hcl:"dti_limit,optional"`
	WarningThreshold       *float64         `hcl:"warning_threshold,optional"`
	LTVWarningThreshold    *float64         `hcl:"ltv_warning_threshold,optional"`
	DefaultAnnualIncome    *int64           `hcl:"default_annual_income,optional"`
	AssumedRemainingMonths *int             `hcl:"assumed_remaining_months,optional"`
	RegulatedDistricts     []string         `hcl:"regulated_districts,optional"`
	MetropolitanRegions    []string         `hcl:"metropolitan_regions,optional"`
	LTV                    []*hclLTVBlock   `hcl:"ltv,block"`
	Stress                 *hclStressBlock  `hcl:"stress,block"`
	Collateral             *hclCollateralBl `hcl:"collateral,block"`
}

type hclLTVBlock struct {
	Status    string  `hcl:"status,label"`
	Regulated float64 `hcl:"regulated"`
	Normal    float64 `hcl:"normal"`
}

type hclStressBlock struct {
	Metropolitan *float64 `hcl:"metropolitan,optional"`
	Other        *float64 `hcl:"other,optional"`
	Cap          *float64 `hcl:"cap,optional"`
}

type hclCollateralBl struct {
	Base              *float64           `hcl:"base_ratio,optional"`
	Min               *float64           `hcl:"min_ratio,optional"`
	Max               *float64           `hcl:"max_ratio,optional"`
	DefaultAdjustment *float64           `hcl:"default_adjustment,optional"`
	GradeAdjustments  map[string]float64 `hcl:"grade_adjustments,optional"`
}

// LoadPolicy reads an HCL policy file. An empty path yields DefaultPolicy.
func LoadPolicy(path string) (Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	return ParsePolicy(src, path)
}

// ParsePolicy overlays the settings found in src on top of DefaultPolicy.
func ParsePolicy(src []byte, filename string) (Policy, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Policy{}, fmt.Errorf("failed to parse policy file %s: %w", filename, diags)
	}

	var parsed hclPolicyFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return Policy{}, fmt.Errorf("failed to decode policy file %s: %w", filename, diags)
	}

	p := DefaultPolicy()
	setDecimal(&p.DSRLimit, parsed.DSRLimit)
	setDecimal(&p.DTILimit, parsed.DTILimit)
	setDecimal(&p.WarningThreshold, parsed.WarningThreshold)
	setDecimal(&p.LTVWarningThreshold, parsed.LTVWarningThreshold)
	if parsed.DefaultAnnualIncome != nil {
		p.DefaultAnnualIncome = decimal.NewFromInt(*parsed.DefaultAnnualIncome)
	}
	if parsed.AssumedRemainingMonths != nil {
		if *parsed.AssumedRemainingMonths <= 0 {
			return Policy{}, fmt.Errorf("policy %s: assumed_remaining_months must be positive", filename)
		}
		p.AssumedRemainingMonths = *parsed.AssumedRemainingMonths
	}
	if len(parsed.RegulatedDistricts) > 0 {
		p.RegulatedDistricts = parsed.RegulatedDistricts
	}
	if len(parsed.MetropolitanRegions) > 0 {
		p.MetropolitanRegions = parsed.MetropolitanRegions
	}
	for _, block := range parsed.LTV {
		p.LTV[block.Status] = LTVLimit{
			Regulated: decimal.NewFromFloat(block.Regulated),
			Normal:    decimal.NewFromFloat(block.Normal),
		}
	}
	if s := parsed.Stress; s != nil {
		setDecimal(&p.StressMetropolitan, s.Metropolitan)
		setDecimal(&p.StressOther, s.Other)
		setDecimal(&p.StressCap, s.Cap)
	}
	if c := parsed.Collateral; c != nil {
		setDecimal(&p.CollateralBase, c.Base)
		setDecimal(&p.CollateralMin, c.Min)
		setDecimal(&p.CollateralMax, c.Max)
		setDecimal(&p.GradeDefaultAdjustment, c.DefaultAdjustment)
		for grade, adj := range c.GradeAdjustments {
			p.GradeAdjustments[grade] = decimal.NewFromFloat(adj)
		}
	}
	if p.CollateralMin.GreaterThan(p.CollateralMax) {
		return Policy{}, fmt.Errorf("policy %s: collateral min_ratio exceeds max_ratio", filename)
	}
	return p, nil
}

func setDecimal(dst *decimal.Decimal, v *float64) {
	if v != nil {
		*dst = decimal.NewFromFloat(*v)
	}
}

// IsRegulated reports whether region names one of the regulated districts.
func (p Policy) IsRegulated(region string) bool {
	return containsAny(region, p.RegulatedDistricts)
}

// IsMetropolitan reports whether region lies in the capital area.
func (p Policy) IsMetropolitan(region string) bool {
	return containsAny(region, p.MetropolitanRegions)
}

// RegionType labels region for display.
func (p Policy) RegionType(region string) string {
	if p.IsRegulated(region) {
		return RegionTypeRegulated
	}
	return RegionTypeGeneral
}

// LTVLimitFor returns the LTV limit in percent. Unknown statuses get the
// limits of a household without a home.
func (p Policy) LTVLimitFor(region, housingStatus string) decimal.Decimal {
	limits, ok := p.LTV[housingStatus]
	if !ok {
		limits = p.LTV[HousingNone]
	}
	if p.IsRegulated(region) {
		return limits.Regulated
	}
	return limits.Normal
}

// StressRate adds the regional stress add-on (bounded by StressCap) to base.
func (p Policy) StressRate(region string, base decimal.Decimal) decimal.Decimal {
	if region == "" {
		return base
	}
	addOn := p.StressOther
	if p.IsMetropolitan(region) {
		addOn = p.StressMetropolitan
	}
	if addOn.GreaterThan(p.StressCap) {
		addOn = p.StressCap
	}
	return base.Add(addOn)
}

// CollateralRatio adjusts a collateral recognition ratio by credit grade and
// clamps it to the policy bounds. A zero ratio means the policy base.
func (p Policy) CollateralRatio(creditGrade string, ratio decimal.Decimal) decimal.Decimal {
	if ratio.IsZero() {
		ratio = p.CollateralBase
	}
	adj, ok := p.GradeAdjustments[creditGrade]
	if !ok {
		adj = p.GradeDefaultAdjustment
	}
	adjusted := ratio.Add(adj)
	if adjusted.LessThan(p.CollateralMin) {
		return p.CollateralMin
	}
	if adjusted.GreaterThan(p.CollateralMax) {
		return p.CollateralMax
	}
	return adjusted
}

func containsAny(s string, needles []string) bool {
	if s == "" {
		return false
	}
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
