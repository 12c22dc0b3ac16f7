package jobs

import "time"

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Metrics summarizes a completed conversion. The JSON names are the wire
// names the original importer tooling expects.
type Metrics struct {
	OriginalRows int      `json:"linhas_originais"`
	OriginalCols int      `json:"colunas_originais"`
	Headers      []string `json:"colunas_encontradas"`
	OutputRows   int      `json:"linhas_novo"`
	BlankRows    int      `json:"linhas_em_branco"`
	BlankCols    int      `json:"colunas_em_branco"`
}

// Job is one state snapshot of an asynchronous conversion request.
// Snapshots are treated as immutable: a mutation is expressed as a full
// Put of a new snapshot, never as an in-place field write.
type Job struct {
	ID           string    `json:"job_id"`
	Status       Status    `json:"status"`
	Progress     int       `json:"progresso"`
	OriginalName string    `json:"arquivo_original"`
	OutputPath   string    `json:"arquivo_saida,omitempty"`
	OutputName   string    `json:"nome_arquivo,omitempty"`
	Result       *Metrics  `json:"resultado,omitempty"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Clone returns a deep copy so callers can never alias registry state.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	tmp := *j
	if j.Result != nil {
		res := *j.Result
		res.Headers = append([]string(nil), j.Result.Headers...)
		tmp.Result = &res
	}
	return &tmp
}
