package domain

import "github.com/shopspring/decimal"

// AlertConfig represents a price alert configuration.
type AlertConfig struct {
	Symbol       Currency        `json:"symbol"`
	TargetPrice  decimal.Decimal `json:"target"`
	Direction    string          `json:"direction"` // "UP" or "DOWN"
	IsPersistent bool            `json:"is_persistent"`
	active       bool
}

// NewAlertConfig creates a new alert configuration. The direction is derived
// from where the target sits relative to the current price.
func NewAlertConfig(symbol Currency, target, current decimal.Decimal, isPersistent bool) *AlertConfig {
	direction := "UP"
	if target.LessThan(current) {
		direction = "DOWN"
	}
	return &AlertConfig{
		Symbol:       symbol,
		TargetPrice:  target,
		Direction:    direction,
		IsPersistent: isPersistent,
		active:       true,
	}
}

// IsActive returns whether the alert is active.
func (a *AlertConfig) IsActive() bool {
	return a.active
}

// SetActive sets the alert's active state.
func (a *AlertConfig) SetActive(active bool) {
	a.active = active
}

// CheckCondition checks if the alert condition is met.
func (a *AlertConfig) CheckCondition(current decimal.Decimal) bool {
	if !a.active {
		return false
	}
	switch a.Direction {
	case "UP":
		return current.GreaterThanOrEqual(a.TargetPrice)
	case "DOWN":
		return current.LessThanOrEqual(a.TargetPrice)
	default:
		return false
	}
}
