// Package money formats invite currency amounts for log and API output.
package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders integer amounts with locale-aware digit grouping and a
// currency suffix (e.g. 2000 -> "2.000đ" under the vi locale).
type Formatter struct {
	printer *message.Printer
	suffix  string
}

// NewFormatter creates a formatter for the given BCP 47 locale tag and
// currency suffix. An unparseable locale falls back to Vietnamese, matching
// the default community the bot was built for.
func NewFormatter(locale, suffix string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Vietnamese
	}
	return &Formatter{
		printer: message.NewPrinter(tag),
		suffix:  suffix,
	}
}

// Format renders an amount with digit grouping and the currency suffix.
func (f *Formatter) Format(amount int64) string {
	return f.printer.Sprintf("%d", amount) + f.suffix
}
