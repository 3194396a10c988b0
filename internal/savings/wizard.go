package savings

import (
	"strconv"
	"strings"
	"time"

	"github.com/hana-ti/home-planner/internal/format"
)

// MinMonthlyAmount is the smallest monthly payment accepted by the signup wizard.
const MinMonthlyAmount = 10_000

// Wizard steps.
const (
	StepProduct = 1
	StepAmount  = 2
	StepAccount = 3
)

// SignupForm is the raw wizard input. Numeric fields arrive as text and may
// carry digit grouping.
type SignupForm struct {
	ProductID        string `json:"productId"`
	TermsAgreed      bool   `json:"termsAgreed"`
	MonthlyAmount    string `json:"monthlyAmount"`
	TermMonths       string `json:"termMonths"`
	PreferredDay     string `json:"preferredDay"`
	InitialDeposit   string `json:"initialDeposit"`
	AutoDebitAccount string `json:"autoDebitAccount"`
}

// StepResult carries field-level errors for one wizard step.
type StepResult struct {
	Step       int               `json:"step"`
	CanAdvance bool              `json:"canAdvance"`
	Errors     map[string]string `json:"errors"`
}

// ValidateStep checks the fields required by step. product may be nil when
// the catalogue entry is unknown, in which case only global bounds apply.
func ValidateStep(step int, form SignupForm, product *Product) StepResult {
	errs := make(map[string]string)
	switch step {
	case StepProduct:
		if strings.TrimSpace(form.ProductID) == "" {
			errs["productId"] = "상품을 선택해주세요."
		}
		if !form.TermsAgreed {
			errs["termsAgreed"] = "약관에 동의해주세요."
		}
	case StepAmount:
		validateAmount(form, product, errs)
	case StepAccount:
		if strings.TrimSpace(form.InitialDeposit) != "" {
			n, ok := parseAmount(form.InitialDeposit)
			if !ok || n < 0 {
				errs["initialDeposit"] = "초기 입금액은 0원 이상이어야 합니다."
			}
		}
	default:
		errs["step"] = "알 수 없는 단계입니다."
	}
	return StepResult{Step: step, CanAdvance: len(errs) == 0, Errors: errs}
}

func validateAmount(form SignupForm, product *Product, errs map[string]string) {
	switch amount, ok := parseAmount(form.MonthlyAmount); {
	case strings.TrimSpace(form.MonthlyAmount) == "":
		errs["monthlyAmount"] = "월 납입액을 입력해주세요."
	case !ok:
		errs["monthlyAmount"] = "올바른 월 납입액을 입력해주세요."
	case amount < MinMonthlyAmount:
		errs["monthlyAmount"] = "월 납입액은 최소 10,000원 이상이어야 합니다."
	case product != nil && product.MinDepositAmount > 0 && amount < product.MinDepositAmount:
		errs["monthlyAmount"] = "월 납입액은 최소 " + format.Won(product.MinDepositAmount) + " 이상이어야 합니다."
	case product != nil && product.MaxDepositAmount > 0 && amount > product.MaxDepositAmount:
		errs["monthlyAmount"] = "월 납입액은 최대 " + format.Won(product.MaxDepositAmount) + "까지 가능합니다."
	}

	switch term, ok := parseAmount(form.TermMonths); {
	case strings.TrimSpace(form.TermMonths) == "":
		errs["termMonths"] = "가입 기간을 선택해주세요."
	case !ok || term <= 0:
		errs["termMonths"] = "올바른 가입 기간을 선택해주세요."
	}

	switch day, ok := parseAmount(form.PreferredDay); {
	case strings.TrimSpace(form.PreferredDay) == "":
		errs["preferredDay"] = "자동이체 희망일을 선택해주세요."
	case !ok || day < 1 || day > 31:
		errs["preferredDay"] = "자동이체 희망일은 1일부터 31일까지 선택 가능합니다."
	}
}

func parseAmount(raw string) (int64, bool) {
	cleaned := strings.NewReplacer(",", "", "원", "", " ", "").Replace(raw)
	if cleaned == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	return n, err == nil
}

// AutoDebitDate returns the next auto-debit date for day: this month's day
// when it is still after today, otherwise next month's. The day is clamped to
// the length of the chosen month.
func AutoDebitDate(today time.Time, day int) time.Time {
	y, m, d := today.Date()
	if clampDay(y, m, day) > d {
		return time.Date(y, m, clampDay(y, m, day), 0, 0, 0, 0, today.Location())
	}
	next := time.Date(y, m+1, 1, 0, 0, 0, 0, today.Location())
	ny, nm, _ := next.Date()
	return time.Date(ny, nm, clampDay(ny, nm, day), 0, 0, 0, 0, today.Location())
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func clampDay(y int, m time.Month, day int) int {
	if day < 1 {
		day = 1
	}
	if last := daysIn(y, m); day > last {
		return last
	}
	return day
}
