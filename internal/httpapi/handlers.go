package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/botconversa/contactsheet/internal/jobs"
	"github.com/botconversa/contactsheet/internal/sheet"
	"github.com/botconversa/contactsheet/pkg/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// allowedExtensions is the upload allow-list; anything else is rejected
// before any bytes are persisted.
var allowedExtensions = map[string]struct{}{
	".xlsx": {},
	".xls":  {},
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1024)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "upload inválido ou acima do limite de tamanho")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "campo 'file' é obrigatório")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		writeError(w, http.StatusBadRequest, "apenas arquivos Excel (.xlsx, .xls) são aceitos")
		return
	}

	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		log.Error("failed to ensure uploads dir: %v", err)
		writeError(w, http.StatusInternalServerError, "erro interno ao preparar upload")
		return
	}

	jobID := uuid.NewString()
	safeName := sanitizeFileName(header.Filename)
	inputPath := filepath.Join(s.uploadsDir, jobID+"_"+safeName)

	out, err := os.Create(inputPath)
	if err != nil {
		log.Error("failed to create upload file: %v", err)
		writeError(w, http.StatusInternalServerError, "erro ao salvar upload")
		return
	}
	if _, err := out.ReadFrom(file); err != nil {
		_ = out.Close()
		_ = os.Remove(inputPath)
		log.Error("failed to persist upload: %v", err)
		writeError(w, http.StatusInternalServerError, "erro ao gravar arquivo")
		return
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(inputPath)
		log.Error("failed to flush upload: %v", err)
		writeError(w, http.StatusInternalServerError, "erro ao gravar arquivo")
		return
	}

	// The creating Put is the upload boundary's only write to this job;
	// ownership moves to the worker task from here on. The snapshot keeps
	// the name exactly as uploaded; sanitization applies to the disk path
	// only.
	job := &jobs.Job{
		ID:           jobID,
		Status:       jobs.StatusProcessing,
		Progress:     0,
		OriginalName: header.Filename,
		CreatedAt:    time.Now(),
	}
	if err := s.registry.Put(r.Context(), job); err != nil {
		_ = os.Remove(inputPath)
		log.Error("failed to register job %s: %v", jobID, err)
		writeError(w, http.StatusInternalServerError, "erro ao registrar job")
		return
	}

	s.pool.Submit(func(ctx context.Context) {
		s.processor.Run(ctx, job, inputPath)
	})

	log.Info("upload accepted: job %s, file %s", jobID, safeName)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"job_id":     jobID,
		"message":    "Arquivo enviado! Processamento iniciado.",
		"status_url": "/status/" + jobID,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	job, err := s.registry.Get(r.Context(), jobID)
	if err != nil {
		log.Error("status lookup for job %s failed: %v", jobID, err)
		writeError(w, http.StatusInternalServerError, "erro ao consultar job")
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "job não encontrado")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	job, err := s.registry.Get(r.Context(), jobID)
	if err != nil {
		log.Error("download lookup for job %s failed: %v", jobID, err)
		writeError(w, http.StatusInternalServerError, "erro ao consultar job")
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "job não encontrado")
		return
	}

	if job.Status != jobs.StatusCompleted {
		writeError(w, http.StatusConflict, fmt.Sprintf("processamento ainda não finalizado. Status: %s", job.Status))
		return
	}
	if job.OutputPath == "" {
		writeError(w, http.StatusInternalServerError, "caminho do arquivo não definido")
		return
	}

	info, err := os.Stat(job.OutputPath)
	if err != nil {
		writeError(w, http.StatusNotFound, "arquivo não encontrado")
		return
	}
	if info.Size() == 0 {
		writeError(w, http.StatusInternalServerError, "arquivo está vazio")
		return
	}

	if _, err, _ := s.validate.Do(jobID, func() (any, error) {
		_, verr := sheet.CountArtifactRows(job.OutputPath)
		return nil, verr
	}); err != nil {
		log.Error("artifact validation for job %s failed: %v", jobID, err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("arquivo corrompido: %v", err))
		return
	}

	name := job.OutputName
	if name == "" {
		name = "arquivo_processado.xlsx"
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	http.ServeFile(w, r, job.OutputPath)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"backend":   s.registry.Name(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func sanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, name)
	if name == "" || name == "." {
		return "planilha.xlsx"
	}
	return name
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
