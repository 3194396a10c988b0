package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hana-ti/home-planner/internal/format"
)

// Spending trends.
const (
	TrendUp     = "증가"
	TrendDown   = "감소"
	TrendSteady = "유지"
)

// Savings goal statuses.
const (
	GoalExceeded = "초과달성"
	GoalMet      = "달성"
	GoalMissed   = "미달성"
)

const topCategoryCount = 5

var (
	hundred         = decimal.NewFromInt(100)
	trendThreshold  = decimal.NewFromInt(5)
	savingsShare    = decimal.RequireFromString("0.2")
	expenseShare    = decimal.RequireFromString("0.7")
	highShare       = decimal.NewFromInt(30)
	dominantShare   = decimal.NewFromInt(50)
	metThreshold    = decimal.NewFromInt(80)
	withinThreshold = decimal.NewFromInt(90)
)

// Summary is the monthly consumption report.
type Summary struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	Basic      BasicStatistics `json:"basicStatistics"`
	Categories CategoryReport  `json:"categoryAnalysis"`
	Products   ProductReport   `json:"financialProductAnalysis"`
	Insights   Insights        `json:"consumptionInsights"`
	Goals      Goals           `json:"goalBasedAnalysis"`
}

// BasicStatistics totals a month of events.
type BasicStatistics struct {
	TotalIncome       int64           `json:"totalIncome"`
	TotalExpense      int64           `json:"totalExpense"`
	NetAmount         int64           `json:"netAmount"`
	AvgDailyExpense   decimal.Decimal `json:"avgDailyExpense"`
	TotalCount        int             `json:"totalTransactionCount"`
	IncomeCount       int             `json:"incomeCount"`
	ExpenseCount      int             `json:"expenseCount"`
	ExpenseChangeRate decimal.Decimal `json:"expenseChangeRate"`
	Trend             string          `json:"expenseChangeTrend"`
}

// CategoryExpense is the spending of one event type.
type CategoryExpense struct {
	Category    string          `json:"category"`
	Description string          `json:"categoryDescription"`
	Amount      int64           `json:"amount"`
	Count       int             `json:"count"`
	Percentage  decimal.Decimal `json:"percentage"`
}

// CategoryReport ranks spending by event type.
type CategoryReport struct {
	Categories    []CategoryExpense `json:"categoryExpenses"`
	Top           []CategoryExpense `json:"topCategories"`
	MostExpensive string            `json:"mostExpensiveCategory"`
	MostAmount    int64             `json:"mostExpensiveAmount"`
}

// ProductReport covers loan, savings and card flows. Loan and card rates
// are shares of expense, the savings rate a share of income.
type ProductReport struct {
	LoanRepaymentAmount  int64           `json:"loanRepaymentAmount"`
	LoanRepaymentCount   int             `json:"loanRepaymentCount"`
	LoanRepaymentRate    decimal.Decimal `json:"loanRepaymentRate"`
	SavingsDepositAmount int64           `json:"savingsDepositAmount"`
	SavingsDepositCount  int             `json:"savingsDepositCount"`
	SavingsDepositRate   decimal.Decimal `json:"savingsDepositRate"`
	CardExpenseAmount    int64           `json:"cardExpenseAmount"`
	CardExpenseCount     int             `json:"cardExpenseCount"`
	CardExpenseRate      decimal.Decimal `json:"cardExpenseRate"`
}

// Pattern splits spending into fixed and variable parts.
type Pattern struct {
	FixedExpenseRate    decimal.Decimal `json:"fixedExpenseRate"`
	VariableExpenseRate decimal.Decimal `json:"variableExpenseRate"`
	Concentration       string          `json:"consumptionConcentration"`
	SpendingTrend       string          `json:"spendingTrend"`
}

// Insights are human readable observations.
type Insights struct {
	Insights            []string `json:"insights"`
	Recommendations     []string `json:"recommendations"`
	SavingOpportunities []string `json:"savingOpportunities"`
	Pattern             Pattern  `json:"consumptionPattern"`
}

// Goal compares a planned amount with the actual one.
type Goal struct {
	Planned         int64           `json:"plannedAmount"`
	Actual          int64           `json:"actualAmount"`
	AchievementRate decimal.Decimal `json:"achievementRate"`
	Status          string          `json:"status"`
	Suggestions     []string        `json:"suggestions"`
}

// Goals groups the savings, loan and expense goals.
type Goals struct {
	Savings Goal `json:"savingsGoal"`
	Loan    Goal `json:"loanGoal"`
	Expense Goal `json:"expenseGoal"`
}

// Summarize builds the report for year/month from that month's events and
// the previous month's.
func Summarize(year int, month time.Month, events, previous []Event) Summary {
	basic := basicStatistics(year, month, events, previous)
	categories := categoryReport(events)
	return Summary{
		Year:       year,
		Month:      int(month),
		Basic:      basic,
		Categories: categories,
		Products:   productReport(events, basic),
		Insights:   insights(events, basic, categories),
		Goals:      goals(events, basic),
	}
}

func sum(events []Event, keep func(Event) bool) (int64, int) {
	var total int64
	var n int
	for _, e := range events {
		if keep(e) {
			total += e.Amount
			n++
		}
	}
	return total, n
}

func isIncome(e Event) bool  { return e.TransactionType == Deposit }
func isExpense(e Event) bool { return e.TransactionType == Withdraw }

func ofType(t string) func(Event) bool {
	return func(e Event) bool { return e.EventType == t }
}

// percent returns part/total as a percentage with two decimals, or zero when total is zero.
func percent(part, total int64) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).DivRound(decimal.NewFromInt(total), 4).Mul(hundred)
}

func basicStatistics(year int, month time.Month, events, previous []Event) BasicStatistics {
	income, incomeCount := sum(events, isIncome)
	expense, expenseCount := sum(events, isExpense)
	days := monthDay(year, month, 31).Day()

	st := BasicStatistics{
		TotalIncome:       income,
		TotalExpense:      expense,
		NetAmount:         income - expense,
		AvgDailyExpense:   decimal.NewFromInt(expense).DivRound(decimal.NewFromInt(int64(days)), 2),
		TotalCount:        len(events),
		IncomeCount:       incomeCount,
		ExpenseCount:      expenseCount,
		ExpenseChangeRate: decimal.Zero,
		Trend:             TrendSteady,
	}
	prevExpense, _ := sum(previous, isExpense)
	if prevExpense > 0 {
		st.ExpenseChangeRate = decimal.NewFromInt(expense - prevExpense).DivRound(decimal.NewFromInt(prevExpense), 4).Mul(hundred)
		switch {
		case st.ExpenseChangeRate.GreaterThan(trendThreshold):
			st.Trend = TrendUp
		case st.ExpenseChangeRate.LessThan(trendThreshold.Neg()):
			st.Trend = TrendDown
		}
	}
	return st
}

func categoryReport(events []Event) CategoryReport {
	total, _ := sum(events, isExpense)
	byType := map[string]*CategoryExpense{}
	for _, e := range events {
		if !isExpense(e) {
			continue
		}
		c, ok := byType[e.EventType]
		if !ok {
			c = &CategoryExpense{Category: e.EventType, Description: TypeName(e.EventType)}
			byType[e.EventType] = c
		}
		c.Amount += e.Amount
		c.Count++
	}
	out := make([]CategoryExpense, 0, len(byType))
	for _, c := range byType {
		c.Percentage = percent(c.Amount, total)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})

	report := CategoryReport{Categories: out, Top: out, MostExpensive: "없음"}
	if len(out) > topCategoryCount {
		report.Top = out[:topCategoryCount]
	}
	if len(out) > 0 {
		report.MostExpensive = out[0].Description
		report.MostAmount = out[0].Amount
	}
	return report
}

func productReport(events []Event, basic BasicStatistics) ProductReport {
	loan, loanCount := sum(events, ofType(TypeLoan))
	saved, savedCount := sum(events, ofType(TypeSavings))
	card, cardCount := sum(events, ofType(TypeCard))
	return ProductReport{
		LoanRepaymentAmount:  loan,
		LoanRepaymentCount:   loanCount,
		LoanRepaymentRate:    percent(loan, basic.TotalExpense),
		SavingsDepositAmount: saved,
		SavingsDepositCount:  savedCount,
		SavingsDepositRate:   percent(saved, basic.TotalIncome),
		CardExpenseAmount:    card,
		CardExpenseCount:     cardCount,
		CardExpenseRate:      percent(card, basic.TotalExpense),
	}
}

func insights(events []Event, basic BasicStatistics, categories CategoryReport) Insights {
	out := Insights{Insights: []string{}, Recommendations: []string{}, SavingOpportunities: []string{}}
	switch basic.Trend {
	case TrendUp:
		out.Insights = append(out.Insights, fmt.Sprintf("전월 대비 소비가 %s%% 증가했습니다.", basic.ExpenseChangeRate.StringFixed(2)))
	case TrendDown:
		out.Insights = append(out.Insights, fmt.Sprintf("전월 대비 소비가 %s%% 감소했습니다. 잘하고 있어요!", basic.ExpenseChangeRate.Abs().StringFixed(2)))
	}
	if len(categories.Top) > 0 {
		top := categories.Top[0]
		out.Insights = append(out.Insights, fmt.Sprintf("'%s' 카테고리에서 가장 많이 소비했습니다 (%s%%).", top.Description, top.Percentage.StringFixed(2)))
	}

	if basic.NetAmount < 0 {
		out.Recommendations = append(out.Recommendations, "이번 달 소비가 수입을 초과했습니다. 지출을 줄이는 것을 권장합니다.")
	} else {
		out.Recommendations = append(out.Recommendations, fmt.Sprintf("이번 달 %s을 절약했습니다!", format.Won(basic.NetAmount)))
	}
	for _, c := range categories.Top {
		if c.Percentage.GreaterThan(highShare) {
			out.SavingOpportunities = append(out.SavingOpportunities,
				fmt.Sprintf("'%s' 카테고리 소비 비중이 높습니다 (%s%%). 절약을 고려해보세요.", c.Description, c.Percentage.StringFixed(2)))
		}
	}

	fixed, _ := sum(events, func(e Event) bool { return isExpense(e) && fixedExpenseTypes[e.EventType] })
	fixedRate := percent(fixed, basic.TotalExpense)
	concentration := "낮음"
	if len(categories.Top) > 0 {
		concentration = "보통"
		if categories.Top[0].Percentage.GreaterThan(dominantShare) {
			concentration = "높음"
		}
	}
	out.Pattern = Pattern{
		FixedExpenseRate:    fixedRate,
		VariableExpenseRate: hundred.Sub(fixedRate),
		Concentration:       concentration,
		SpendingTrend:       basic.Trend,
	}
	return out
}

func goals(events []Event, basic BasicStatistics) Goals {
	return Goals{
		Savings: savingsGoal(events, basic),
		Loan:    loanGoal(events),
		Expense: expenseGoal(basic),
	}
}

// savingsGoal targets 20% of income.
func savingsGoal(events []Event, basic BasicStatistics) Goal {
	actual, _ := sum(events, ofType(TypeSavings))
	target := decimal.NewFromInt(basic.TotalIncome).Mul(savingsShare).Round(0).IntPart()
	g := Goal{Planned: target, Actual: actual, AchievementRate: percent(actual, target)}
	switch {
	case g.AchievementRate.GreaterThanOrEqual(hundred):
		g.Status = GoalExceeded
		g.Suggestions = []string{"목표 적금액을 달성했습니다! 훌륭합니다!"}
	case g.AchievementRate.GreaterThanOrEqual(metThreshold):
		g.Status = GoalMet
		g.Suggestions = []string{"목표에 근접했습니다. 조금만 더 노력하세요!"}
	default:
		g.Status = GoalMissed
		g.Suggestions = []string{fmt.Sprintf("목표 적금액까지 %s이 부족합니다.", format.Won(target-actual))}
	}
	return g
}

// loanGoal compares all loan events with those still scheduled.
func loanGoal(events []Event) Goal {
	actual, _ := sum(events, ofType(TypeLoan))
	planned, _ := sum(events, func(e Event) bool { return e.EventType == TypeLoan && e.Status == StatusScheduled })
	g := Goal{Planned: planned, Actual: actual, AchievementRate: hundred}
	if planned > 0 {
		g.AchievementRate = percent(actual, planned)
	}
	if g.AchievementRate.GreaterThanOrEqual(hundred) {
		g.Status = "정상"
		g.Suggestions = []string{"대출 상환 계획을 잘 지키고 있습니다."}
	} else {
		g.Status = "지연"
		g.Suggestions = []string{"대출 상환이 지연되고 있습니다. 신속한 상환을 권장합니다."}
	}
	return g
}

// expenseGoal budgets 70% of income for spending.
func expenseGoal(basic BasicStatistics) Goal {
	target := decimal.NewFromInt(basic.TotalIncome).Mul(expenseShare).Round(0).IntPart()
	g := Goal{Planned: target, Actual: basic.TotalExpense, AchievementRate: percent(basic.TotalExpense, target)}
	remaining := target - basic.TotalExpense
	switch {
	case g.AchievementRate.GreaterThan(hundred):
		g.Status = "초과"
		g.Suggestions = []string{fmt.Sprintf("목표 소비액을 %s 초과했습니다. 지출을 줄이세요.", format.Won(-remaining))}
	case g.AchievementRate.GreaterThanOrEqual(withinThreshold):
		g.Status = "목표 내"
		g.Suggestions = []string{"소비 목표를 잘 지키고 있습니다!"}
	default:
		g.Status = "미달"
		g.Suggestions = []string{fmt.Sprintf("아직 %s의 예산이 남았습니다.", format.Won(remaining))}
	}
	return g
}
