package sheet

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultTag is always appended to the composed tag string so every
// imported contact carries the confirmation label.
const DefaultTag = "NomeConfirmado"

// MinPhoneDigits is the keep threshold: rows whose normalized phone is
// shorter are silently discarded.
const MinPhoneDigits = 10

// maxPhoneDigits bounds the repair loop for malformed country-code
// prefixes.
const maxPhoneDigits = 13

// Candidate columns in fixed priority order; the first one present in
// the header is used, even when its cell is empty.
var (
	phoneColumns = []string{"telefone", "contato", "celular"}
	tagColumns   = []string{"etiquetas", "etiqueta", "tag"}
)

// Contact is one normalized output record. It exists only inside the
// pipeline and is never persisted on its own.
type Contact struct {
	FirstName string
	LastName  string
	Phone     string
	Tags      string
}

// Transformer converts raw data rows of a detected layout into Contacts.
// It is not safe for concurrent use; each job builds its own.
type Transformer struct {
	variant Variant
	index   map[string]int
	title   cases.Caser
}

func NewTransformer(variant Variant, index map[string]int) *Transformer {
	return &Transformer{
		variant: variant,
		index:   index,
		title:   cases.Title(language.BrazilianPortuguese),
	}
}

// IsBlankRow reports whether every cell is empty after trimming.
func IsBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Apply transforms one data row. keep is false when the normalized phone
// has fewer than MinPhoneDigits digits; such rows do not reach the
// output and are not counted as blank.
func (t *Transformer) Apply(row []string) (Contact, bool) {
	contact := Contact{Tags: DefaultTag}

	switch t.variant {
	case VariantFullName:
		contact.FirstName, contact.LastName = t.splitFullName(t.cell(row, "nome"))
	case VariantSplitName:
		contact.FirstName, contact.LastName = t.combineSplitName(
			t.cell(row, "primeiro nome"),
			t.cell(row, "sobrenome"),
		)
	}

	contact.Phone = t.phone(row)
	contact.Tags = t.tags(row)

	if len(contact.Phone) < MinPhoneDigits {
		return Contact{}, false
	}
	return contact, true
}

// splitFullName handles the 3-column layout: the first whitespace token
// becomes the first name, the remaining tokens the last name, each
// title-cased per word.
func (t *Transformer) splitFullName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	first := t.title.String(parts[0])
	last := ""
	if len(parts) > 1 {
		last = t.title.String(strings.Join(parts[1:], " "))
	}
	return first, last
}

// combineSplitName handles the 4-column layout: extra tokens in the
// first-name cell are moved in front of the surname cell's value.
func (t *Transformer) combineSplitName(firstCell, surnameCell string) (string, string) {
	parts := strings.Fields(firstCell)
	first := ""
	rest := ""
	if len(parts) > 0 {
		first = t.title.String(parts[0])
		rest = strings.Join(parts[1:], " ")
	}
	combined := strings.TrimSpace(rest + " " + strings.TrimSpace(surnameCell))
	last := ""
	if combined != "" {
		last = t.title.String(combined)
	}
	return first, last
}

func (t *Transformer) phone(row []string) string {
	for _, col := range phoneColumns {
		i, ok := t.index[col]
		if !ok || len(row) <= i {
			continue
		}
		return NormalizePhone(row[i])
	}
	return ""
}

// NormalizePhone strips every non-digit and then applies the legacy
// repair for malformed country-code prefixes: while the digit string is
// longer than 13, the 5th digit is removed and the remainder shifts
// left. This positional removal is load-bearing for historical data and
// must not be replaced with a plain truncation.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	for len(digits) > maxPhoneDigits {
		digits = digits[:4] + digits[5:]
	}
	return digits
}

func (t *Transformer) tags(row []string) string {
	for _, col := range tagColumns {
		i, ok := t.index[col]
		if !ok || len(row) <= i {
			continue
		}
		val := strings.TrimSpace(row[i])
		if val != "" && !strings.EqualFold(val, "nan") {
			return val + ", " + DefaultTag
		}
		return DefaultTag
	}
	return DefaultTag
}

func (t *Transformer) cell(row []string, header string) string {
	i, ok := t.index[header]
	if !ok || len(row) <= i {
		return ""
	}
	return strings.TrimSpace(row[i])
}
