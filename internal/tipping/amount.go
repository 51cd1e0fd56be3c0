package tipping

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a validated per-recipient tip.
type Amount struct {
	Value decimal.Decimal
	Raw   decimal.Decimal
	Text  string
}

// maxIntegerDigits bounds the integer part of an amount, far above the 9 digit Nano
// supply.
const maxIntegerDigits = 40

// ParseAmount reads the amount token of a command. It returns a *Rejection when the
// token is not a decimal number, is below the configured minimum, or carries more
// precision than the settlement unit can represent.
//
// The exponent is bounded before any comparison or scaling: "1e-2147483600" is a valid
// decimal and rescaling it would build a two billion digit integer.
func ParseAmount(token string, cfg Config) (Amount, error) {
	value, err := decimal.NewFromString(token)
	if err != nil {
		return Amount{}, reject(KindMalformedAmount, fmt.Sprintf(cfg.Messages.NotANumber, token))
	}

	belowMinimum := reject(KindBelowMinimum,
		fmt.Sprintf(cfg.Messages.BelowMinimum, cfg.withCurrency(FormatAmount(cfg.MinTip))))
	if !value.IsPositive() {
		return Amount{}, belowMinimum
	}

	// value = coefficient * 10^exp with NumDigits digits in the coefficient.
	magnitude := int64(value.NumDigits()) + int64(value.Exponent())
	if magnitude > maxIntegerDigits {
		return Amount{}, reject(KindMalformedAmount, fmt.Sprintf(cfg.Messages.TooLarge, token))
	}
	tooPrecise := reject(KindMalformedAmount,
		fmt.Sprintf(cfg.Messages.TooPrecise, token, cfg.withCurrency(FormatAmount(cfg.smallestUnit()))))
	if magnitude <= -int64(cfg.UnitExponent) {
		// Below one raw unit whatever its digits.
		return Amount{}, tooPrecise
	}

	if value.LessThan(cfg.MinTip) {
		return Amount{}, belowMinimum
	}

	raw := value.Mul(cfg.unitMultiplier())
	if !raw.IsInteger() {
		return Amount{}, tooPrecise
	}

	return Amount{Value: value, Raw: raw, Text: FormatAmount(value)}, nil
}

// FormatAmount renders a decimal without scientific notation. A rendering that starts
// with the decimal point gets a leading zero.
func FormatAmount(d decimal.Decimal) string {
	s := d.String()
	if strings.HasPrefix(s, ".") {
		return "0" + s
	}
	return s
}
