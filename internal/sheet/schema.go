package sheet

import (
	"errors"
	"strings"
)

// Variant identifies which of the two recognized header layouts a sheet
// uses, which in turn decides how name columns are interpreted.
type Variant int

const (
	VariantUnknown Variant = iota
	// VariantFullName is the 3-column layout: the full name lives in a
	// single "nome" column.
	VariantFullName
	// VariantSplitName is the 4-column layout: "primeiro nome" and
	// "sobrenome" are separate columns.
	VariantSplitName
)

func (v Variant) String() string {
	switch v {
	case VariantFullName:
		return "3-column"
	case VariantSplitName:
		return "4-column"
	default:
		return "unknown"
	}
}

// ErrSchemaNotRecognized is returned when a header row matches neither
// recognized layout.
var ErrSchemaNotRecognized = errors.New("formato de planilha não reconhecido: colunas necessárias não encontradas")

var (
	fullNameHeaders  = []string{"telefone", "nome", "etiquetas"}
	splitNameHeaders = []string{"primeiro nome", "sobrenome", "telefone", "etiquetas"}
)

// NormalizeHeaders trims and lower-cases every header cell.
func NormalizeHeaders(raw []string) []string {
	ret := make([]string, len(raw))
	for i, h := range raw {
		ret[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return ret
}

// HeaderIndex maps each normalized header to its column position. When a
// header appears more than once the last occurrence wins.
func HeaderIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[h] = i
	}
	return idx
}

// Detect classifies a normalized header row. The 3-column layout is
// checked first, so a sheet matching both resolves to VariantFullName.
func Detect(headers []string) (Variant, error) {
	set := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		set[h] = struct{}{}
	}

	if containsAll(set, fullNameHeaders) {
		return VariantFullName, nil
	}
	if containsAll(set, splitNameHeaders) {
		return VariantSplitName, nil
	}
	return VariantUnknown, ErrSchemaNotRecognized
}

func containsAll(set map[string]struct{}, required []string) bool {
	for _, h := range required {
		if _, ok := set[h]; !ok {
			return false
		}
	}
	return true
}
