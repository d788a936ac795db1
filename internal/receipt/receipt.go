// Package receipt renders a check as fixed-width plain text.
package receipt

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"fsanano/checkout/internal/model"
	"fsanano/checkout/internal/money"
)

const (
	StoreName    = "ФОП Джонсонюк Борис"
	ThankYou     = "Дякуємо за покупку!"
	TotalLabel   = "СУМА"
	RestLabel    = "Решта"
	TimeLayout   = "02.01.2006 15:04"
	DefaultWidth = 32
	MinWidth     = 20
	MaxWidth     = 80
)

// PreconditionError means the caller passed a check or width the renderer
// cannot lay out. It is a contract violation, not a business error.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "receipt precondition failed: " + e.Reason
}

// Render lays out c at the given width. Every line fits the width except the
// quantity x price line, which is never cut.
func Render(c model.Check, width int) (string, error) {
	if len(c.Products) == 0 {
		return "", &PreconditionError{Reason: "check has no products"}
	}
	if width < 1 {
		return "", &PreconditionError{Reason: fmt.Sprintf("width %d is not positive", width)}
	}

	products := make([]string, 0, len(c.Products))
	for _, p := range c.Products {
		block, err := renderProduct(p, width)
		if err != nil {
			return "", err
		}
		products = append(products, block)
	}

	summary, err := renderSummary(c, width)
	if err != nil {
		return "", err
	}

	bold := strings.Repeat("=", width)
	thin := strings.Repeat("-", width)

	lines := []string{
		center(StoreName, width),
		bold,
		strings.Join(products, "\n"+thin+"\n"),
		bold,
		summary,
		bold,
		center(c.CreatedAt.UTC().Format(TimeLayout), width),
		center(ThankYou, width),
	}
	return strings.Join(lines, "\n"), nil
}

// renderProduct prints "<qty> x <price>", the wrapped name, and the line total
// either on the last name line or on a line of its own.
func renderProduct(p model.Product, width int) (string, error) {
	total := money.Format(p.LineTotal(), money.Places)
	if runeLen(total) > width {
		return "", &PreconditionError{Reason: fmt.Sprintf("width %d cannot fit amount %s", width, total)}
	}

	qtyPrice := money.FormatPlain(p.Quantity, money.QuantityPlaces) + " x " + money.Format(p.Price, money.Places)

	lines := wrap(capitalize(norm.NFC.String(p.Name)), width)
	if len(lines) == 0 {
		lines = []string{""}
	}

	last := lines[len(lines)-1]
	room := width - runeLen(last)
	if room > runeLen(total) {
		lines[len(lines)-1] = last + padLeft(total, room)
	} else {
		lines = append(lines, padLeft(total, width))
	}

	return qtyPrice + "\n" + strings.Join(lines, "\n"), nil
}

func renderPayment(p model.Payment, width int) (string, error) {
	return labeled(p.Type.Label(), money.Format(p.Amount, money.Places), width)
}

func renderSummary(c model.Check, width int) (string, error) {
	total, err := labeled(TotalLabel, money.Format(c.Total, money.Places), width)
	if err != nil {
		return "", err
	}
	payment, err := renderPayment(c.Payment, width)
	if err != nil {
		return "", err
	}
	rest, err := labeled(RestLabel, money.Format(c.Rest, money.Places), width)
	if err != nil {
		return "", err
	}
	return total + "\n" + payment + "\n" + rest, nil
}

// labeled puts the label on the left and the value flush right.
func labeled(label, value string, width int) (string, error) {
	room := width - runeLen(label)
	if runeLen(value) > room {
		return "", &PreconditionError{Reason: fmt.Sprintf("width %d cannot fit %s %s", width, label, value)}
	}
	return label + padLeft(value, room), nil
}

// center pads s on the left so it sits in the middle of width; an odd leftover
// space goes to the left only when width is odd. Right padding is not emitted.
func center(s string, width int) string {
	margin := width - runeLen(s)
	if margin <= 0 {
		return s
	}
	left := margin/2 + (margin & width & 1)
	return strings.Repeat(" ", left) + s
}

func padLeft(s string, width int) string {
	n := width - runeLen(s)
	if n <= 0 {
		return s
	}
	return strings.Repeat(" ", n) + s
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// wrap breaks text into lines of at most width runes, between words. Runs of
// whitespace inside a line are kept; whitespace at a line break is dropped. A
// word longer than width is split: first to fill the current line, then in
// width-sized pieces.
func wrap(text string, width int) []string {
	chunks := splitChunks(text)

	var lines []string
	for len(chunks) > 0 {
		if len(lines) > 0 && isBlank(chunks[0]) {
			chunks = chunks[1:]
			continue
		}

		var cur []rune
		for len(chunks) > 0 && len(cur)+len(chunks[0]) <= width {
			cur = append(cur, chunks[0]...)
			chunks = chunks[1:]
		}
		if len(chunks) > 0 && len(chunks[0]) > width {
			n := max(width-len(cur), 0)
			if len(cur) == 0 {
				n = max(width, 1)
			}
			cur = append(cur, chunks[0][:n]...)
			chunks[0] = chunks[0][n:]
		}

		if line := strings.TrimRight(string(cur), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

const asciiSpace = "\t\n\v\f\r "

// splitChunks splits text into alternating runs of words and spaces. Tabs
// expand to the next multiple of 8 columns; other ASCII whitespace becomes a
// space. Non-ASCII spaces such as NBSP stay inside words.
func splitChunks(text string) [][]rune {
	var (
		chunks [][]rune
		cur    []rune
		col    int
	)
	push := func() {
		if len(cur) > 0 {
			chunks = append(chunks, cur)
			cur = nil
		}
	}

	for _, r := range text {
		space := strings.ContainsRune(asciiSpace, r)
		if len(cur) > 0 && (cur[0] == ' ') != space {
			push()
		}
		switch {
		case r == '\t':
			n := 8 - col%8
			cur = append(cur, []rune(strings.Repeat(" ", n))...)
			col += n
		case r == '\n' || r == '\r':
			cur = append(cur, ' ')
			col = 0
		case space:
			cur = append(cur, ' ')
			col++
		default:
			cur = append(cur, r)
			col++
		}
	}
	push()
	return chunks
}

func isBlank(chunk []rune) bool {
	return len(chunk) > 0 && chunk[0] == ' '
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
