package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ielts-writing-coach/internal/config"
	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
	"github.com/fairyhunter13/ielts-writing-coach/pkg/textx"
)

// maxJSONBody caps the analyze request body independently of MaxEssayChars.
const maxJSONBody = 1 << 20

// ReportAnalyzer is the use case behind the analysis endpoints.
type ReportAnalyzer interface {
	Analyze(ctx domain.Context, text, taskPrompt string) (domain.Report, error)
	Get(ctx domain.Context, id string) (domain.Report, error)
}

// Server aggregates handlers dependencies.
type Server struct {
	Cfg        config.Config
	Reports    ReportAnalyzer
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
// Either check may be nil when its backend is not configured.
func NewServer(cfg config.Config, reports ReportAnalyzer, dbCheck, redisCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Reports: reports, DBCheck: dbCheck, RedisCheck: redisCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

type analyzeRequest struct {
	Essay  string `json:"essay" validate:"required"`
	Prompt string `json:"prompt" validate:"max=2000"`
}

type reportResponse struct {
	ID        string                `json:"id"`
	Stored    bool                  `json:"stored"`
	CreatedAt time.Time             `json:"created_at"`
	Prompt    string                `json:"prompt,omitempty"`
	Essay     string                `json:"essay,omitempty"`
	Result    domain.AnalysisResult `json:"result"`
}

func newReportResponse(r domain.Report, withEssay bool) reportResponse {
	resp := reportResponse{ID: r.ID, Stored: r.Stored, CreatedAt: r.CreatedAt, Prompt: r.Prompt, Result: r.Result}
	if withEssay {
		resp.Essay = r.Essay
	}
	if resp.Result.Annotations == nil {
		resp.Result.Annotations = []domain.Annotation{}
	}
	return resp
}

// acceptsJSON handles Accept negotiation: only JSON responses are supported.
func acceptsJSON(w http.ResponseWriter, r *http.Request) bool {
	a := r.Header.Get("Accept")
	if a == "" || strings.Contains(a, "*/*") || strings.Contains(a, "application/json") || strings.Contains(a, "application/*") {
		return true
	}
	writeStatus(w, http.StatusNotAcceptable, codeInvalidArgument, "not acceptable", map[string]any{"accept": a})
	return false
}

// checkEssay strips control characters and enforces the length limit. The
// result is what the analyzer sees, so every offset refers to it.
func (s *Server) checkEssay(w http.ResponseWriter, r *http.Request, raw string) (string, bool) {
	text := textx.StripControl(raw)
	if limit := s.Cfg.MaxEssayChars; limit > 0 && utf8.RuneCountInString(text) > limit {
		writeError(w, r, fmt.Errorf("%w: essay exceeds %d characters", domain.ErrInvalidArgument, limit), map[string]any{"field": "essay", "max_chars": limit})
		return "", false
	}
	return text, true
}

// AnalyzeHandler analyses an essay submitted as JSON.
func (s *Server) AnalyzeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if isTooLarge(err) {
				writeStatus(w, http.StatusRequestEntityTooLarge, codeInvalidArgument, "payload too large", map[string]any{"max_bytes": maxJSONBody})
				return
			}
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			verrs := map[string]string{}
			var ve validator.ValidationErrors
			if errors.As(err, &ve) {
				for _, fe := range ve {
					verrs[strings.ToLower(fe.Field())] = fe.Tag()
				}
			}
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
			return
		}
		essay, ok := s.checkEssay(w, r, req.Essay)
		if !ok {
			return
		}
		s.analyze(w, r, essay, textx.SanitizeText(req.Prompt))
	}
}

// UploadHandler analyses an essay uploaded as a plain-text file in the
// multipart field "essay". An optional "prompt" form value carries the task.
func (s *Server) UploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxUploadKB * 1024
		if maxBytes <= 0 {
			maxBytes = 256 * 1024
		}
		tooLarge := func() {
			writeStatus(w, http.StatusRequestEntityTooLarge, codeInvalidArgument, "payload too large", map[string]any{"max_kb": maxBytes / 1024})
		}
		// Leave room for multipart framing and the prompt field.
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+64*1024)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if isTooLarge(err) {
				tooLarge()
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		file, header, err := r.FormFile("essay")
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: essay file required", domain.ErrInvalidArgument), map[string]string{"field": "essay"})
			return
		}
		defer func() { _ = file.Close() }()
		if header.Size > maxBytes {
			tooLarge()
			return
		}
		if !allowedExt(header.Filename) {
			writeStatus(w, http.StatusUnsupportedMediaType, codeInvalidArgument, "unsupported media type (extension)", map[string]any{"filename": header.Filename})
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: essay read: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		if int64(len(data)) > maxBytes {
			tooLarge()
			return
		}
		if len(strings.TrimSpace(string(data))) == 0 {
			writeError(w, r, fmt.Errorf("%w: essay file is empty", domain.ErrInvalidArgument), map[string]string{"field": "essay"})
			return
		}
		// Content sniffing with mimetype; only text is accepted.
		mt := mimetype.Detect(data)
		if !allowedMIME(mt.String()) || !utf8.Valid(data) {
			writeStatus(w, http.StatusUnsupportedMediaType, codeInvalidArgument, "unsupported media type (content)", map[string]any{"mime": mt.String(), "filename": header.Filename})
			return
		}
		essay, ok := s.checkEssay(w, r, string(data))
		if !ok {
			return
		}
		prompt := textx.SanitizeText(r.FormValue("prompt"))
		if utf8.RuneCountInString(prompt) > 2000 {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), map[string]string{"prompt": "max"})
			return
		}
		s.analyze(w, r, essay, prompt)
	}
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, essay, prompt string) {
	rep, err := s.Reports.Analyze(r.Context(), essay, prompt)
	if err != nil {
		LoggerFrom(r).Error("analysis failed", slog.Any("error", err))
		writeError(w, r, fmt.Errorf("analyze: %w", err), nil)
		return
	}
	writeJSON(w, http.StatusOK, newReportResponse(rep, false))
}

// ReportHandler returns a stored report.
func (s *Server) ReportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		id := chi.URLParam(r, "id")
		if res := ValidateReportID(id); !res.Valid {
			writeError(w, r, fmt.Errorf("%w: %s", domain.ErrInvalidArgument, res.Errors[0].Message), res.Errors)
			return
		}
		rep, err := s.Reports.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, newReportResponse(rep, true))
	}
}

// HealthzHandler reports liveness.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler returns a readiness handler that probes the configured DB and Redis.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	probes := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"db", s.DBCheck},
		{"redis", s.RedisCheck},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, len(probes))
		ok := true
		for _, p := range probes {
			if p.fn == nil {
				continue
			}
			if err := p.fn(ctx); err != nil {
				ok = false
				checks = append(checks, check{Name: p.name, OK: false, Details: err.Error()})
				continue
			}
			checks = append(checks, check{Name: p.name, OK: true})
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}

// allowedExt enforces an allowlist for uploads: .txt and .md
func allowedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return true
	}
	return false
}

// allowedMIME accepts any text/* type; detectors label some prose as text/html.
func allowedMIME(m string) bool {
	return strings.HasPrefix(strings.ToLower(m), "text/")
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "request body too large")
}
