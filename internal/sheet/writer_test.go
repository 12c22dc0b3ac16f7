package sheet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriter_WriteRoundTrip(t *testing.T) {
	w := NewWriter(t.TempDir())

	contacts := []Contact{
		{FirstName: "Maria", LastName: "Silva", Phone: "11999998888", Tags: "VIP, NomeConfirmado"},
		{FirstName: "José", LastName: "Souza", Phone: "11911112222", Tags: "NomeConfirmado"},
	}

	path, name, err := w.Write("contatos.xlsx", contacts)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "contatos_"))
	assert.True(t, strings.HasSuffix(name, ".xlsx"))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, OutputSheetName, f.GetSheetName(0))
	rows, err := f.GetRows(OutputSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, OutputHeader, rows[0])
	assert.Equal(t, []string{"Maria", "Silva", "11999998888", "VIP, NomeConfirmado"}, rows[1])
	assert.Equal(t, []string{"José", "Souza", "11911112222", "NomeConfirmado"}, rows[2])
}

func TestWriter_UniqueNamesForSameUpload(t *testing.T) {
	w := NewWriter(t.TempDir())
	contacts := []Contact{{FirstName: "Maria", Phone: "11999998888", Tags: "NomeConfirmado"}}

	pathA, nameA, err := w.Write("contatos.xlsx", contacts)
	require.NoError(t, err)
	pathB, nameB, err := w.Write("contatos.xlsx", contacts)
	require.NoError(t, err)

	assert.NotEqual(t, nameA, nameB)
	assert.NotEqual(t, pathA, pathB)
}

func TestWriter_StripsDirectoryFromOriginalName(t *testing.T) {
	w := NewWriter(t.TempDir())
	contacts := []Contact{{FirstName: "Maria", Phone: "11999998888", Tags: "NomeConfirmado"}}

	_, name, err := w.Write("../../etc/lista.xls", contacts)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "lista_"))
}

func TestCountArtifactRows(t *testing.T) {
	w := NewWriter(t.TempDir())
	contacts := []Contact{
		{FirstName: "Maria", Phone: "11999998888", Tags: "NomeConfirmado"},
		{FirstName: "José", Phone: "11911112222", Tags: "NomeConfirmado"},
	}

	path, _, err := w.Write("contatos.xlsx", contacts)
	require.NoError(t, err)

	rows, err := CountArtifactRows(path)
	require.NoError(t, err)
	assert.Equal(t, len(contacts)+1, rows)
}

func TestCountArtifactRows_UnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o644))

	_, err := CountArtifactRows(path)
	require.Error(t, err)
}
