// Package money converts between minor currency units and the decimal rupee
// amounts shown to shoppers and sent by the backend.
package money

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	Symbol        = "₹"
	PaisePerRupee = 100
)

// FromRupees rounds a decimal rupee amount to paise.
func FromRupees(rupees float64) int64 {
	return int64(math.Round(rupees * PaisePerRupee))
}

func ToRupees(paise int64) float64 {
	return float64(paise) / PaisePerRupee
}

type Formatter struct {
	p *message.Printer
}

// NewFormatter groups digits the way tag does.
func NewFormatter(tag language.Tag) Formatter {
	return Formatter{message.NewPrinter(tag)}
}

var defaultFormatter = NewFormatter(language.MustParse("en-IN"))

// Format renders paise as a rupee price. Whole rupee amounts have no
// fractional part.
func (f Formatter) Format(paise int64) string {
	var b strings.Builder
	if paise < 0 {
		b.WriteByte('-')
		paise = -paise
	}
	b.WriteString(Symbol)
	b.WriteString(f.p.Sprintf("%d", paise/PaisePerRupee))
	if frac := paise % PaisePerRupee; frac != 0 {
		fmt.Fprintf(&b, ".%02d", frac)
	}
	return b.String()
}

// FormatINR formats with Indian digit grouping.
func FormatINR(paise int64) string {
	return defaultFormatter.Format(paise)
}
