// Package pricing computes the cost of a print job from printer and
// weight. Pricing is weight-based only; estimated time is recorded on the
// job but does not enter the cost.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fabworks/printflow/internal/domain"
)

// Printer describes one configured printer and its rate.
type Printer struct {
	RatePerGram decimal.Decimal
	Type        string
	DisplayName string
}

// Calculator prices jobs against a fixed printer table and minimum
// charge. Compute is pure; the table is immutable after construction.
type Calculator struct {
	printers      map[string]Printer
	minimumCharge decimal.Decimal
}

// NewCalculator builds a Calculator from a printer table and minimum
// charge.
func NewCalculator(printers map[string]Printer, minimumCharge decimal.Decimal) *Calculator {
	table := make(map[string]Printer, len(printers))
	for k, v := range printers {
		table[k] = v
	}
	return &Calculator{printers: table, minimumCharge: minimumCharge}
}

// DefaultPrinters is the lab's printer fleet. Filament printers charge
// $0.10/g, resin $0.20/g.
func DefaultPrinters() map[string]Printer {
	return map[string]Printer{
		"prusa_mk4s":       {RatePerGram: decimal.NewFromFloat(0.10), Type: "Filament", DisplayName: "Prusa MK4S"},
		"prusa_xl":         {RatePerGram: decimal.NewFromFloat(0.10), Type: "Filament", DisplayName: "Prusa XL"},
		"raise3d_pro2plus": {RatePerGram: decimal.NewFromFloat(0.10), Type: "Filament", DisplayName: "Raise3D Pro 2 Plus"},
		"formlabs_form3":   {RatePerGram: decimal.NewFromFloat(0.20), Type: "Resin", DisplayName: "Form 3"},
	}
}

// DefaultMinimumCharge is the clamp applied to every priced job.
var DefaultMinimumCharge = decimal.RequireFromString("3.00")

// Compute multiplies weight by the printer's per-gram rate, clamps upward
// to the minimum charge, and rounds half-up to the cent. Weight must be
// non-negative; that is a caller precondition, not clamped here.
func (c *Calculator) Compute(printerKey string, weightGrams float64) (decimal.Decimal, error) {
	printer, ok := c.printers[printerKey]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrUnknownPrinter, printerKey)
	}

	cost := decimal.NewFromFloat(weightGrams).Mul(printer.RatePerGram)
	if cost.LessThan(c.minimumCharge) {
		cost = c.minimumCharge
	}
	// Round is half away from zero, i.e. half-up on this non-negative
	// domain.
	return cost.Round(2), nil
}

// DisplayName returns the human name for a printer key, falling back to
// the key itself.
func (c *Calculator) DisplayName(printerKey string) string {
	if p, ok := c.printers[printerKey]; ok {
		return p.DisplayName
	}
	return printerKey
}

// Known reports whether printerKey is in the table.
func (c *Calculator) Known(printerKey string) bool {
	_, ok := c.printers[printerKey]
	return ok
}
