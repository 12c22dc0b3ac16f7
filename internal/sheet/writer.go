package sheet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// OutputSheetName is the worksheet name of every generated artifact.
const OutputSheetName = "Contatos"

// OutputHeader is the fixed four-column layout the importer expects.
var OutputHeader = []string{"Primeiro nome", "Sobrenome", "Telefone", "Etiquetas"}

// ErrArtifactCorrupted signals that a freshly written artifact failed its
// read-back validation.
var ErrArtifactCorrupted = errors.New("arquivo gerado está corrompido")

// IsCorrupted reports whether err comes from artifact self-validation.
func IsCorrupted(err error) bool {
	return errors.Is(err, ErrArtifactCorrupted)
}

// Writer assembles kept contacts into a new workbook under outputDir,
// with a collision-free name per job, and self-validates the result by
// re-reading it.
type Writer struct {
	outputDir string
}

func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir}
}

// Write persists contacts in their original relative order and returns
// the absolute artifact path and its file name.
func (w *Writer) Write(originalName string, contacts []Contact) (string, string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, OutputSheetName); err != nil {
		return "", "", fmt.Errorf("rename sheet: %w", err)
	}

	write := func(col, row int, v string) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(OutputSheetName, cell, v)
	}

	for i, h := range OutputHeader {
		write(i+1, 1, h)
	}
	for i, c := range contacts {
		row := i + 2
		write(1, row, c.FirstName)
		write(2, row, c.LastName)
		write(3, row, c.Phone)
		write(4, row, c.Tags)
	}

	name := outputName(originalName)
	path, err := filepath.Abs(filepath.Join(w.outputDir, name))
	if err != nil {
		return "", "", fmt.Errorf("resolve output path: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return "", "", fmt.Errorf("save workbook: %w", err)
	}

	rows, err := CountArtifactRows(path)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrArtifactCorrupted, err)
	}
	if rows != len(contacts)+1 {
		return "", "", fmt.Errorf("%w: esperava %d linhas, encontrou %d", ErrArtifactCorrupted, len(contacts)+1, rows)
	}

	return path, name, nil
}

// CountArtifactRows re-opens a generated artifact and returns its row
// count, failing when the workbook is unreadable. The download boundary
// uses it as a corruption check before streaming.
func CountArtifactRows(path string) (int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return 0, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return 0, fmt.Errorf("artifact has no sheets")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return 0, fmt.Errorf("read artifact rows: %w", err)
	}
	return len(rows), nil
}

// outputName derives the artifact name from the original file's base
// name plus a fresh unique suffix, so concurrent jobs for the same
// upload name never collide.
func outputName(originalName string) string {
	base := filepath.Base(originalName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		base = "contatos"
	}
	return fmt.Sprintf("%s_%s.xlsx", base, uuid.NewString())
}
