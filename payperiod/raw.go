package payperiod

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/calendar"
)

// =============================================================================
// RAW CONFIG - JSON payload before validation
// =============================================================================

// RawConfig is the client payload for a pay-period configuration. Every field
// is optional at the JSON level; Resolve decides which ones are required.
//
//	{
//	  "period_type": "semi-monthly",
//	  "first_pay_day": 1,
//	  "second_pay_day": "15",
//	  "overtime_trigger_type": "daily",
//	  "overtime_hours_threshold": 8
//	}
type RawConfig struct {
	PeriodType               Value `json:"period_type"`
	FirstPayDay              Value `json:"first_pay_day"`
	SecondPayDay             Value `json:"second_pay_day"`
	MonthlyStartDay          Value `json:"monthly_start_day"`
	MonthlyEndDay            Value `json:"monthly_end_day"`
	StartDayOfWeek           Value `json:"start_day_of_week"`
	BiWeeklyAnchorDate       Value `json:"bi_weekly_anchor_date"`
	CustomStartDate          Value `json:"custom_start_date"`
	CustomEndDate            Value `json:"custom_end_date"`
	OvertimeTriggerType      Value `json:"overtime_trigger_type"`
	DoubleTimeTriggerType    Value `json:"double_time_trigger_type"`
	OvertimeHoursThreshold   Value `json:"overtime_hours_threshold"`
	DoubleTimeHoursThreshold Value `json:"double_time_hours_threshold"`
	OvertimeMultiplier       Value `json:"overtime_multiplier"`
	DoubleTimeMultiplier     Value `json:"double_time_multiplier"`
	WorkWeekStartDay         Value `json:"work_week_start_day"`
}

// ToRaw renders a resolved config back into its raw form. Resolve(ToRaw(c))
// yields c again.
func ToRaw(c Config) RawConfig {
	raw := RawConfig{
		PeriodType:               String(string(c.PeriodType)),
		OvertimeTriggerType:      String(string(c.OvertimeTriggerType)),
		DoubleTimeTriggerType:    String(string(c.DoubleTimeTriggerType)),
		OvertimeHoursThreshold:   Decimal(c.OvertimeHoursThreshold),
		DoubleTimeHoursThreshold: Decimal(c.DoubleTimeHoursThreshold),
		OvertimeMultiplier:       Decimal(c.OvertimeMultiplier),
		DoubleTimeMultiplier:     Decimal(c.DoubleTimeMultiplier),
		WorkWeekStartDay:         Int(int(c.WorkWeekStartDay)),
	}
	switch c.PeriodType {
	case SemiMonthly:
		raw.FirstPayDay = Int(c.FirstPayDay)
		raw.SecondPayDay = Int(c.SecondPayDay)
	case Monthly:
		raw.MonthlyStartDay = Int(c.MonthlyStartDay)
		raw.MonthlyEndDay = Int(c.MonthlyEndDay)
	case Weekly:
		raw.StartDayOfWeek = Int(int(c.StartDayOfWeek))
	case BiWeekly:
		raw.BiWeeklyAnchorDate = String(c.BiWeeklyAnchorDate.String())
	case Custom:
		raw.CustomStartDate = String(c.CustomStartDate.String())
		raw.CustomEndDate = String(c.CustomEndDate.String())
	}
	return raw
}

// =============================================================================
// VALUE - a JSON scalar that may be a number, a string or absent
// =============================================================================

// Value holds one raw config field. Forms send numbers as strings as often as
// numbers, so both are accepted; null and "" mean absent.
type Value struct {
	raw    string
	set    bool
	quoted bool
}

func String(s string) Value {
	s = strings.TrimSpace(s)
	return Value{raw: s, set: s != "", quoted: true}
}

func Int(n int) Value { return Value{raw: fmt.Sprint(n), set: true} }

func Decimal(d decimal.Decimal) Value { return Value{raw: d.String(), set: true} }

func (v Value) IsSet() bool    { return v.set }
func (v Value) String() string { return v.raw }

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = Value{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected number or string, got %s", b)
	}
	*v = Value{raw: n.String(), set: true}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.set {
		return []byte("null"), nil
	}
	if v.quoted {
		return json.Marshal(v.raw)
	}
	return []byte(v.raw), nil
}

// decimal parses the value as a finite number.
func (v Value) decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", v.raw)
	}
	return d, nil
}

// integer parses the value as a whole number.
func (v Value) integer() (int, error) {
	d, err := v.decimal()
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%q is not a whole number", v.raw)
	}
	return int(d.IntPart()), nil
}

func (v Value) date() (calendar.Date, error) {
	return calendar.ParseDate(v.raw)
}
