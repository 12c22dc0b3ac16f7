package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/botconversa/contactsheet/internal/jobs"
	"github.com/botconversa/contactsheet/internal/sheet"
	"github.com/botconversa/contactsheet/pkg/log"
)

// Progress milestones. The row loop interpolates between rowLoopStart and
// rowLoopCap; everything else is a fixed checkpoint.
const (
	progressOpened      = 10
	rowLoopStart        = 30
	rowLoopSpan         = 50
	rowLoopCap          = 80
	progressColumnsDone = 85
	progressDone        = 100

	progressEveryRows = 1000
)

// Processor drives one job end to end: read, detect, transform, write,
// and the final state transition. It is the single writer for a job's
// registry entry from the moment the job is dispatched.
type Processor struct {
	registry jobs.Registry
	writer   *sheet.Writer
}

func NewProcessor(registry jobs.Registry, outputDir string) *Processor {
	return &Processor{
		registry: registry,
		writer:   sheet.NewWriter(outputDir),
	}
}

type outcome struct {
	outputPath string
	outputName string
	metrics    *jobs.Metrics
}

// Run executes the full pipeline for job, reading the uploaded workbook
// at inputPath. Every failure is converted into the job's terminal Error
// snapshot; nothing propagates to the submission caller, which has
// already returned. The temporary input file is removed on every exit
// path, including panics.
func (p *Processor) Run(ctx context.Context, job *jobs.Job, inputPath string) {
	defer func() {
		if err := os.Remove(inputPath); err != nil && !os.IsNotExist(err) {
			log.Warn("job %s: failed to remove temp input %s: %v", job.ID, inputPath, err)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Error("job %s: pipeline panic: %v", job.ID, r)
			p.markError(ctx, job, NewError(ErrUnknown, fmt.Sprintf("erro interno: %v", r)))
		}
	}()

	log.Info("job %s: processing %s", job.ID, job.OriginalName)

	result, perr := p.process(ctx, job, inputPath)
	if perr != nil {
		log.Error("job %s: %v", job.ID, perr)
		p.markError(ctx, job, perr)
		return
	}

	p.markCompleted(ctx, job, result)
	log.Info("job %s: completed, %d rows kept, artifact %s", job.ID, result.metrics.OutputRows, result.outputName)
}

func (p *Processor) process(ctx context.Context, job *jobs.Job, inputPath string) (*outcome, *Error) {
	in, err := sheet.ReadInput(inputPath)
	if err != nil {
		return nil, WrapError(err, ErrIO, "falha ao ler a planilha enviada").WithContext("job_id", job.ID)
	}
	p.progress(ctx, job.ID, progressOpened)

	variant, err := sheet.Detect(in.Headers)
	if err != nil {
		return nil, WrapError(err, ErrValidation, "formato de planilha não reconhecido").WithContext("headers", in.Headers)
	}
	log.Info("job %s: detected %s layout, %d columns", job.ID, variant, in.ColCount)
	p.progress(ctx, job.ID, rowLoopStart)

	transformer := sheet.NewTransformer(variant, sheet.HeaderIndex(in.Headers))

	contacts := make([]sheet.Contact, 0, len(in.Rows))
	blankRows := 0
	for rowIdx, row := range in.Rows {
		if sheet.IsBlankRow(row) {
			blankRows++
			continue
		}
		if contact, keep := transformer.Apply(row); keep {
			contacts = append(contacts, contact)
		}

		if rowIdx%progressEveryRows == 0 && in.RowCount > 0 {
			pct := rowLoopStart + rowIdx*rowLoopSpan/in.RowCount
			if pct > rowLoopCap {
				pct = rowLoopCap
			}
			p.progress(ctx, job.ID, pct)
		}
	}

	blankCols := in.BlankColumns()
	p.progress(ctx, job.ID, progressColumnsDone)

	if len(contacts) == 0 {
		return nil, NewError(ErrValidation, "nenhuma linha válida encontrada para processar")
	}

	outputPath, outputName, err := p.writer.Write(job.OriginalName, contacts)
	if err != nil {
		if sheet.IsCorrupted(err) {
			return nil, WrapError(err, ErrCorruption, "arquivo gerado está corrompido")
		}
		return nil, WrapError(err, ErrIO, "falha ao gravar o arquivo de saída")
	}
	p.progress(ctx, job.ID, progressDone)

	return &outcome{
		outputPath: outputPath,
		outputName: outputName,
		metrics: &jobs.Metrics{
			OriginalRows: in.RowCount,
			OriginalCols: in.ColCount,
			Headers:      in.Headers,
			OutputRows:   len(contacts),
			BlankRows:    blankRows,
			BlankCols:    blankCols,
		},
	}, nil
}

// markCompleted publishes the terminal success snapshot: progress forced
// to 100, metrics attached.
func (p *Processor) markCompleted(ctx context.Context, job *jobs.Job, result *outcome) {
	snapshot := &jobs.Job{
		ID:           job.ID,
		Status:       jobs.StatusCompleted,
		Progress:     progressDone,
		OriginalName: job.OriginalName,
		OutputPath:   result.outputPath,
		OutputName:   result.outputName,
		Result:       result.metrics,
		CreatedAt:    job.CreatedAt,
	}
	if err := p.registry.Put(ctx, snapshot); err != nil {
		log.Error("job %s: failed to record completion: %v", job.ID, err)
	}
}

// markError publishes the terminal failure snapshot. Progress resets to
// 0: partial progress is deliberately discarded on failure.
func (p *Processor) markError(ctx context.Context, job *jobs.Job, perr *Error) {
	snapshot := &jobs.Job{
		ID:           job.ID,
		Status:       jobs.StatusError,
		Progress:     0,
		OriginalName: job.OriginalName,
		Error:        errorMessage(perr),
		CreatedAt:    job.CreatedAt,
	}
	if err := p.registry.Put(ctx, snapshot); err != nil {
		log.Error("job %s: failed to record failure: %v", job.ID, err)
	}
}

func (p *Processor) progress(ctx context.Context, jobID string, pct int) {
	if err := p.registry.UpdateProgress(ctx, jobID, pct); err != nil {
		log.Warn("job %s: progress update failed: %v", jobID, err)
	}
}

func errorMessage(perr *Error) string {
	if perr.Cause != nil {
		return fmt.Sprintf("%s: %v", perr.Message, perr.Cause)
	}
	return perr.Message
}
