package hours

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payperiod"
)

// Report is the read-model for one period: the per-employee summaries plus
// grand totals. Exporters render it as-is.
type Report struct {
	Period    payperiod.Period
	Employees []EmployeeHoursSummary
	Totals    Totals
}

type Totals struct {
	EmployeeCount   int
	SessionCount    int
	RegularHours    decimal.Decimal
	OvertimeHours   decimal.Decimal
	DoubleTimeHours decimal.Decimal
	TotalHours      decimal.Decimal
	BillableHours   decimal.Decimal
	TotalPay        decimal.Decimal
}

// BuildReport wraps summaries with their period and totals.
func BuildReport(period payperiod.Period, summaries []EmployeeHoursSummary) Report {
	t := Totals{
		EmployeeCount:   len(summaries),
		RegularHours:    decimal.Zero,
		OvertimeHours:   decimal.Zero,
		DoubleTimeHours: decimal.Zero,
		TotalHours:      decimal.Zero,
		BillableHours:   decimal.Zero,
		TotalPay:        decimal.Zero,
	}
	for _, s := range summaries {
		t.SessionCount += len(s.Sessions)
		t.RegularHours = t.RegularHours.Add(s.RegularHours)
		t.OvertimeHours = t.OvertimeHours.Add(s.OvertimeHours)
		t.DoubleTimeHours = t.DoubleTimeHours.Add(s.DoubleTimeHours)
		t.TotalHours = t.TotalHours.Add(s.TotalHours)
		t.BillableHours = t.BillableHours.Add(s.BillableHours)
		t.TotalPay = t.TotalPay.Add(s.TotalPay)
	}
	if summaries == nil {
		summaries = []EmployeeHoursSummary{}
	}
	return Report{Period: period, Employees: summaries, Totals: t}
}
