package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"payment-reconciler/internal/models"
)

var ErrInvalidAmount = errors.New("invalid amount value")

// ToMinorUnits converts a PSP decimal-string amount into the backend's
// minor-unit representation. The fraction-digit count is taken from the string
// itself, so "10.00" keeps two digits while "1050" keeps zero; currencies
// without decimals stay whole. Boundary rounding is asymmetric and must stay
// that way: positive amounts round toward +infinity, non-positive toward
// -infinity, which keeps charge/refund pairs in parity.
func ToMinorUnits(amount models.PSPAmount) (models.Money, error) {
	value := strings.TrimSpace(amount.Value)

	d, err := decimal.NewFromString(value)
	if err != nil {
		return models.Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, amount.Value)
	}

	fractionDigits := 0
	if i := strings.IndexByte(value, '.'); i >= 0 {
		fractionDigits = len(value) - i - 1
	}

	shifted := d.Shift(int32(fractionDigits))

	var cents decimal.Decimal
	if shifted.IsPositive() {
		cents = shifted.Ceil()
	} else {
		cents = shifted.Floor()
	}

	return models.Money{
		CurrencyCode:   amount.Currency,
		CentAmount:     cents.IntPart(),
		FractionDigits: int32(fractionDigits),
	}, nil
}
