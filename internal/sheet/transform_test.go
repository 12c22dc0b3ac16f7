package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "strips formatting", raw: "(11) 9999-8888", want: "1199998888"},
		{name: "already clean", raw: "11999998888", want: "11999998888"},
		{name: "thirteen digits untouched", raw: "5511999998888", want: "5511999998888"},
		{
			// 16 digits: the 5th digit is removed three times, never a
			// suffix truncation.
			name: "legacy prefix repair",
			raw:  "5511999998888888",
			want: "5511998888888",
		},
		{name: "fourteen digits", raw: "05511999998888", want: "0551999998888"},
		{name: "letters ignored", raw: "tel: 11 99999-8888", want: "11999998888"},
		{name: "empty", raw: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), 13)
		})
	}
}

func TestIsBlankRow(t *testing.T) {
	assert.True(t, IsBlankRow([]string{"", "  ", "\t"}))
	assert.True(t, IsBlankRow(nil))
	assert.False(t, IsBlankRow([]string{"", "x", ""}))
}

func TestTransformer_FullNameVariant(t *testing.T) {
	headers := []string{"nome", "telefone", "etiquetas"}
	tr := NewTransformer(VariantFullName, HeaderIndex(headers))

	contact, keep := tr.Apply([]string{"Maria Silva", "11999998888", "VIP"})
	require.True(t, keep)
	assert.Equal(t, "Maria", contact.FirstName)
	assert.Equal(t, "Silva", contact.LastName)
	assert.Equal(t, "11999998888", contact.Phone)
	assert.Equal(t, "VIP, NomeConfirmado", contact.Tags)
}

func TestTransformer_FullNameVariant_ManyTokens(t *testing.T) {
	headers := []string{"nome", "telefone", "etiquetas"}
	tr := NewTransformer(VariantFullName, HeaderIndex(headers))

	contact, keep := tr.Apply([]string{"maria da silva souza", "11999998888", ""})
	require.True(t, keep)
	assert.Equal(t, "Maria", contact.FirstName)
	assert.Equal(t, "Da Silva Souza", contact.LastName)
	assert.Equal(t, "NomeConfirmado", contact.Tags)
}

func TestTransformer_SplitNameVariant(t *testing.T) {
	headers := []string{"primeiro nome", "sobrenome", "telefone", "etiquetas"}
	tr := NewTransformer(VariantSplitName, HeaderIndex(headers))

	contact, keep := tr.Apply([]string{"João Pedro", "Costa", "(11) 9999-8888", ""})
	require.True(t, keep)
	assert.Equal(t, "João", contact.FirstName)
	// Extra tokens from the first-name cell move in front of the surname.
	assert.Equal(t, "Pedro Costa", contact.LastName)
	assert.Equal(t, "1199998888", contact.Phone)
	assert.Equal(t, "NomeConfirmado", contact.Tags)
}

func TestTransformer_SplitNameVariant_SingleToken(t *testing.T) {
	headers := []string{"primeiro nome", "sobrenome", "telefone", "etiquetas"}
	tr := NewTransformer(VariantSplitName, HeaderIndex(headers))

	contact, keep := tr.Apply([]string{"ana", "souza", "11988887777", "cliente"})
	require.True(t, keep)
	assert.Equal(t, "Ana", contact.FirstName)
	assert.Equal(t, "Souza", contact.LastName)
	assert.Equal(t, "cliente, NomeConfirmado", contact.Tags)
}

func TestTransformer_ShortPhoneDiscarded(t *testing.T) {
	headers := []string{"nome", "telefone", "etiquetas"}
	tr := NewTransformer(VariantFullName, HeaderIndex(headers))

	_, keep := tr.Apply([]string{"Maria Silva", "999-8888", "VIP"})
	assert.False(t, keep)
}

func TestTransformer_PhoneColumnPriority(t *testing.T) {
	headers := []string{"nome", "contato", "celular", "etiquetas"}
	tr := NewTransformer(VariantFullName, HeaderIndex(headers))

	// "contato" outranks "celular"; its value wins even with both filled.
	contact, keep := tr.Apply([]string{"Maria Silva", "11999998888", "11911112222", "VIP"})
	require.True(t, keep)
	assert.Equal(t, "11999998888", contact.Phone)
}

func TestTransformer_FirstPhoneColumnWinsEvenWhenEmpty(t *testing.T) {
	headers := []string{"nome", "telefone", "celular", "etiquetas"}
	tr := NewTransformer(VariantFullName, HeaderIndex(headers))

	// "telefone" is present in the header, so its (empty) value is used
	// and the row is discarded; "celular" is never consulted.
	_, keep := tr.Apply([]string{"Maria Silva", "", "11999998888", "VIP"})
	assert.False(t, keep)
}

func TestTransformer_TagNanTreatedAsEmpty(t *testing.T) {
	headers := []string{"nome", "telefone", "etiquetas"}
	tr := NewTransformer(VariantFullName, HeaderIndex(headers))

	for _, raw := range []string{"nan", "NaN", "NAN", "  nan  ", ""} {
		contact, keep := tr.Apply([]string{"Maria Silva", "11999998888", raw})
		require.True(t, keep)
		assert.Equal(t, "NomeConfirmado", contact.Tags, "raw tag %q", raw)
	}
}

func TestTransformer_TagColumnPriority(t *testing.T) {
	headers := []string{"nome", "telefone", "tag", "etiqueta"}
	tr := NewTransformer(VariantFullName, HeaderIndex(headers))

	contact, keep := tr.Apply([]string{"Maria Silva", "11999998888", "baixa", "alta"})
	require.True(t, keep)
	assert.Equal(t, "alta, NomeConfirmado", contact.Tags)
}
