package view

import (
	"time"

	"github.com/shopspring/decimal"
)

// Money formats a quote-currency amount with two decimals, e.g. "$1234.50".
func Money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// OptionalMoney 价格缺失时显示 "--"
func OptionalMoney(d *decimal.Decimal) string {
	if d == nil {
		return "--"
	}
	return Money(*d)
}

// Size formats a base-asset quantity with six decimals.
func Size(d decimal.Decimal) string {
	return d.StringFixed(6)
}

// SignedMoney prefixes non-negative values with "+", e.g. "+$20.00", "-$3.10".
func SignedMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "+$" + d.StringFixed(2)
}

// Percent formats a change value that is already expressed in percent.
func Percent(d decimal.Decimal) string {
	if d.IsNegative() {
		return d.StringFixed(2) + "%"
	}
	return "+" + d.StringFixed(2) + "%"
}

// Clock 格式化时间, 缺失时显示 "N/A"
func Clock(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "N/A"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
