/*
Package hours aggregates classified work sessions into per-employee payable
summaries for a pay period, and shapes them into the report read-model that
exporters and the UI consume.

Summaries are never stored. They are rebuilt from sessions and the company
config on every request.

PAY FORMULA:
  piece work:  the session's literal piece_work_pay
  otherwise:   regular*rate + overtime*rate*otMultiplier + doubleTime*rate*dtMultiplier

Piece-work hours still count toward every hour total, so TotalPay is not
always TotalHours*rate.
*/
package hours

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payperiod"
	"github.com/warp/payroll-engine/timeclass"
)

// UnknownEmployeeName labels sessions whose employee is missing from the directory.
const UnknownEmployeeName = "Unknown employee"

// Employee is the directory view the aggregator needs.
type Employee struct {
	ID         string
	CompanyID  string
	Name       string
	HourlyRate decimal.Decimal
}

// EmployeeHoursSummary is one employee's payable totals for a period.
type EmployeeHoursSummary struct {
	EmployeeID      string
	EmployeeName    string
	HourlyRate      decimal.Decimal
	RegularHours    decimal.Decimal
	OvertimeHours   decimal.Decimal
	DoubleTimeHours decimal.Decimal
	TotalHours      decimal.Decimal
	BillableHours   decimal.Decimal
	PieceWorkPay    decimal.Decimal
	TotalPay        decimal.Decimal
	Sessions        []timeclass.Session
}

// Aggregate sums the classified sessions that fall inside period into one
// summary per employee, ordered by name then ID. Sessions outside the period
// are ignored. Employees missing from the directory get a zero rate.
func Aggregate(period payperiod.Period, sessions []timeclass.Session, employees map[string]Employee, cfg payperiod.Config) []EmployeeHoursSummary {
	byEmployee := make(map[string]*EmployeeHoursSummary)
	r := period.Range()

	for _, s := range sessions {
		if !r.Contains(s.WorkDate) {
			continue
		}
		sum, ok := byEmployee[s.EmployeeID]
		if !ok {
			sum = newSummary(s.EmployeeID, employees)
			byEmployee[s.EmployeeID] = sum
		}
		sum.add(s, cfg)
	}

	out := make([]EmployeeHoursSummary, 0, len(byEmployee))
	for _, sum := range byEmployee {
		sum.TotalPay = sum.TotalPay.Round(2)
		sort.SliceStable(sum.Sessions, func(i, j int) bool {
			return sum.Sessions[i].StartTime.Before(sum.Sessions[j].StartTime)
		})
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeName != out[j].EmployeeName {
			return out[i].EmployeeName < out[j].EmployeeName
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}

// SessionPay is the pay contribution of one classified session.
func SessionPay(s timeclass.Session, rate decimal.Decimal, cfg payperiod.Config) decimal.Decimal {
	if s.IsPieceWork {
		if s.PieceWorkPay.Valid {
			return s.PieceWorkPay.Decimal
		}
		return decimal.Zero
	}
	b := s.Buckets
	return b.Regular.Mul(rate).
		Add(b.Overtime.Mul(rate).Mul(cfg.OvertimeMultiplier)).
		Add(b.DoubleTime.Mul(rate).Mul(cfg.DoubleTimeMultiplier))
}

func newSummary(employeeID string, employees map[string]Employee) *EmployeeHoursSummary {
	sum := &EmployeeHoursSummary{
		EmployeeID:      employeeID,
		EmployeeName:    UnknownEmployeeName,
		HourlyRate:      decimal.Zero,
		RegularHours:    decimal.Zero,
		OvertimeHours:   decimal.Zero,
		DoubleTimeHours: decimal.Zero,
		TotalHours:      decimal.Zero,
		BillableHours:   decimal.Zero,
		PieceWorkPay:    decimal.Zero,
		TotalPay:        decimal.Zero,
	}
	if e, ok := employees[employeeID]; ok {
		sum.EmployeeName = e.Name
		sum.HourlyRate = e.HourlyRate
	}
	return sum
}

func (sum *EmployeeHoursSummary) add(s timeclass.Session, cfg payperiod.Config) {
	b := s.Buckets
	sum.RegularHours = sum.RegularHours.Add(b.Regular)
	sum.OvertimeHours = sum.OvertimeHours.Add(b.Overtime)
	sum.DoubleTimeHours = sum.DoubleTimeHours.Add(b.DoubleTime)
	sum.TotalHours = sum.TotalHours.Add(b.Total())
	if s.Billable() {
		sum.BillableHours = sum.BillableHours.Add(b.Total())
	}

	pay := SessionPay(s, sum.HourlyRate, cfg)
	if s.IsPieceWork {
		sum.PieceWorkPay = sum.PieceWorkPay.Add(pay)
	}
	sum.TotalPay = sum.TotalPay.Add(pay)
	sum.Sessions = append(sum.Sessions, s)
}
