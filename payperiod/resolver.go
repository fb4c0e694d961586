package payperiod

import (
	"time"

	"github.com/shopspring/decimal"
)

// Resolve validates a raw payload and returns the normalized Config.
//
// Only the fields required by period_type are read; anything else is ignored.
// Trigger types default to "daily", thresholds to 8h/12h and multipliers to
// 1.5/2.0. The first problem found is returned as a *ValidationError.
func Resolve(companyID string, raw RawConfig) (Config, error) {
	cfg := Config{CompanyID: companyID}

	if !raw.PeriodType.IsSet() {
		return Config{}, invalid("period_type", "is required")
	}
	cfg.PeriodType = PeriodType(raw.PeriodType.String())
	if !cfg.PeriodType.Valid() {
		return Config{}, invalid("period_type", "unsupported value %q", raw.PeriodType.String())
	}

	if err := resolveCadence(&cfg, raw); err != nil {
		return Config{}, err
	}
	if err := resolveOvertime(&cfg, raw); err != nil {
		return Config{}, err
	}
	if err := resolveWorkWeek(&cfg, raw); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func resolveCadence(cfg *Config, raw RawConfig) error {
	var err error
	switch cfg.PeriodType {
	case SemiMonthly:
		if cfg.FirstPayDay, err = dayField("first_pay_day", raw.FirstPayDay, 1, 28); err != nil {
			return err
		}
		if cfg.SecondPayDay, err = requiredInt("second_pay_day", raw.SecondPayDay); err != nil {
			return err
		}
		if cfg.SecondPayDay != EndOfMonthPayDay && (cfg.SecondPayDay < 1 || cfg.SecondPayDay > 28) {
			return invalid("second_pay_day", "must be between 1 and 28, or %d for end of month", EndOfMonthPayDay)
		}
		if cfg.SecondPayDay <= cfg.FirstPayDay {
			return invalid("second_pay_day", "must be after first_pay_day")
		}
		if cfg.SecondPayDay == EndOfMonthPayDay && cfg.FirstPayDay == 1 {
			return invalid("first_pay_day", "must be at least 2 when second_pay_day is end of month; use a monthly period starting on day 1 for one period per calendar month")
		}

	case Monthly:
		if cfg.MonthlyStartDay, err = dayField("monthly_start_day", raw.MonthlyStartDay, 1, 31); err != nil {
			return err
		}
		if cfg.MonthlyEndDay, err = dayField("monthly_end_day", raw.MonthlyEndDay, 1, 31); err != nil {
			return err
		}

	case Weekly:
		day, err := dayField("start_day_of_week", raw.StartDayOfWeek, 0, 6)
		if err != nil {
			return err
		}
		cfg.StartDayOfWeek = time.Weekday(day)

	case BiWeekly:
		if !raw.BiWeeklyAnchorDate.IsSet() {
			return invalid("bi_weekly_anchor_date", "is required")
		}
		if cfg.BiWeeklyAnchorDate, err = raw.BiWeeklyAnchorDate.date(); err != nil {
			return invalid("bi_weekly_anchor_date", "%v", err)
		}

	case Custom:
		if !raw.CustomStartDate.IsSet() {
			return invalid("custom_start_date", "is required")
		}
		if !raw.CustomEndDate.IsSet() {
			return invalid("custom_end_date", "is required")
		}
		if cfg.CustomStartDate, err = raw.CustomStartDate.date(); err != nil {
			return invalid("custom_start_date", "%v", err)
		}
		if cfg.CustomEndDate, err = raw.CustomEndDate.date(); err != nil {
			return invalid("custom_end_date", "%v", err)
		}
		if cfg.CustomEndDate.Before(cfg.CustomStartDate) {
			return invalid("custom_end_date", "must not be before custom_start_date")
		}
	}
	return nil
}

func resolveOvertime(cfg *Config, raw RawConfig) error {
	var err error
	if cfg.OvertimeTriggerType, err = triggerField("overtime_trigger_type", raw.OvertimeTriggerType); err != nil {
		return err
	}
	if cfg.DoubleTimeTriggerType, err = triggerField("double_time_trigger_type", raw.DoubleTimeTriggerType); err != nil {
		return err
	}
	if cfg.OvertimeHoursThreshold, err = nonNegative("overtime_hours_threshold", raw.OvertimeHoursThreshold, DefaultOvertimeThreshold); err != nil {
		return err
	}
	if cfg.DoubleTimeHoursThreshold, err = nonNegative("double_time_hours_threshold", raw.DoubleTimeHoursThreshold, DefaultDoubleTimeThreshold); err != nil {
		return err
	}
	if cfg.OvertimeMultiplier, err = nonNegative("overtime_multiplier", raw.OvertimeMultiplier, DefaultOvertimeMultiplier); err != nil {
		return err
	}
	if cfg.DoubleTimeMultiplier, err = nonNegative("double_time_multiplier", raw.DoubleTimeMultiplier, DefaultDoubleTimeMultiplier); err != nil {
		return err
	}

	// Tiers sharing one window must be ordered; separate windows are not comparable.
	sameWindow := cfg.OvertimeTriggerType != TriggerNone &&
		cfg.OvertimeTriggerType == cfg.DoubleTimeTriggerType
	if sameWindow && cfg.DoubleTimeHoursThreshold.LessThan(cfg.OvertimeHoursThreshold) {
		return invalid("double_time_hours_threshold", "must not be below overtime_hours_threshold")
	}
	return nil
}

func resolveWorkWeek(cfg *Config, raw RawConfig) error {
	if raw.WorkWeekStartDay.IsSet() {
		day, err := dayField("work_week_start_day", raw.WorkWeekStartDay, 0, 6)
		if err != nil {
			return err
		}
		cfg.WorkWeekStartDay = time.Weekday(day)
		return nil
	}
	switch cfg.PeriodType {
	case Weekly:
		cfg.WorkWeekStartDay = cfg.StartDayOfWeek
	case BiWeekly:
		cfg.WorkWeekStartDay = cfg.BiWeeklyAnchorDate.Weekday()
	default:
		cfg.WorkWeekStartDay = time.Sunday
	}
	return nil
}

// =============================================================================
// FIELD HELPERS
// =============================================================================

func requiredInt(field string, v Value) (int, error) {
	if !v.IsSet() {
		return 0, invalid(field, "is required")
	}
	n, err := v.integer()
	if err != nil {
		return 0, invalid(field, "%v", err)
	}
	return n, nil
}

func dayField(field string, v Value, min, max int) (int, error) {
	n, err := requiredInt(field, v)
	if err != nil {
		return 0, err
	}
	if n < min || n > max {
		return 0, invalid(field, "must be between %d and %d", min, max)
	}
	return n, nil
}

func triggerField(field string, v Value) (TriggerType, error) {
	if !v.IsSet() {
		return TriggerDaily, nil
	}
	t := TriggerType(v.String())
	if !t.Valid() {
		return "", invalid(field, "unsupported value %q", v.String())
	}
	return t, nil
}

func nonNegative(field string, v Value, fallback decimal.Decimal) (decimal.Decimal, error) {
	if !v.IsSet() {
		return fallback, nil
	}
	d, err := v.decimal()
	if err != nil {
		return decimal.Zero, invalid(field, "%v", err)
	}
	if d.IsNegative() {
		return decimal.Zero, invalid(field, "must not be negative")
	}
	return d, nil
}
