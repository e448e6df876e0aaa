// Package billing contains the numbering and total calculation rules shared
// by quotes and invoices. Nothing in here touches storage.
package billing

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/diewo77/ecotrim/internal/apperr"
)

// Kind discriminates the two document variants and their number sequences.
type Kind string

const (
	KindQuote   Kind = "quote"
	KindInvoice Kind = "invoice"
)

// Valid reports whether k is a known document kind.
func (k Kind) Valid() bool {
	return k == KindQuote || k == KindInvoice
}

const (
	InvoicePrefix = "ECX"
	InvoiceSeed   = "ECX-792"
	QuoteSeed     = "8499"
)

var (
	invoiceNumberRe = regexp.MustCompile(`^` + InvoicePrefix + `-(\d+)$`)
	quoteNumberRe   = regexp.MustCompile(`^(\d+)$`)
)

// Latest is the most recently created document of a kind. A nil *Latest
// means no document of that kind exists yet.
type Latest struct {
	Number    string
	CreatedAt time.Time
}

// NextInvoiceNumber returns ECX-(N+1) for a last number ECX-N, or the seed
// when there is no previous invoice.
func NextInvoiceNumber(last *Latest) (string, error) {
	if last == nil {
		return InvoiceSeed, nil
	}
	n, err := parseSuffix(KindInvoice, last.Number, invoiceNumberRe)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d", InvoicePrefix, n+1), nil
}

// NextQuoteNumber returns N+1 for a last quote number N, or the seed.
func NextQuoteNumber(last *Latest) (string, error) {
	if last == nil {
		return QuoteSeed, nil
	}
	n, err := parseSuffix(KindQuote, last.Number, quoteNumberRe)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(n+1, 10), nil
}

// NextNumber dispatches on kind.
func NextNumber(kind Kind, last *Latest) (string, error) {
	switch kind {
	case KindInvoice:
		return NextInvoiceNumber(last)
	case KindQuote:
		return NextQuoteNumber(last)
	default:
		return "", fmt.Errorf("unknown document kind %q", kind)
	}
}

func parseSuffix(kind Kind, number string, re *regexp.Regexp) (uint64, error) {
	m := re.FindStringSubmatch(number)
	if m == nil {
		return 0, &apperr.ParseError{Kind: string(kind), Number: number}
	}
	n, err := strconv.ParseUint(m[1], 10, 63)
	if err != nil {
		return 0, &apperr.ParseError{Kind: string(kind), Number: number, Err: err}
	}
	if n == 1<<63-1 {
		return 0, &apperr.ParseError{Kind: string(kind), Number: number, Err: strconv.ErrRange}
	}
	return n, nil
}
