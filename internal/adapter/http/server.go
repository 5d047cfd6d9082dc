package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/fabworks/printflow/internal/domain"
	"github.com/fabworks/printflow/internal/pathauth"
)

// maxUploadBytes caps submission size. Student models are rarely over a
// few tens of megabytes.
const maxUploadBytes = 128 << 20

// Server is the HTTP adapter for the print workflow service.
type Server struct {
	svc      *domain.StateMachine
	mux      *http.ServeMux
	server   *http.Server
	staffKey string
}

// NewServer creates a new HTTP server. staffKey is the shared staff
// passphrase guarding the dashboard endpoints.
func NewServer(svc *domain.StateMachine, addr string, staffKey string) *Server {
	s := &Server{
		svc:      svc,
		mux:      http.NewServeMux(),
		staffKey: staffKey,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /jobs", s.handleSubmit)
	s.mux.HandleFunc("GET /jobs", s.staff(s.handleList))
	s.mux.HandleFunc("GET /jobs/{id}", s.staff(s.handleGetJob))
	s.mux.HandleFunc("POST /jobs/{id}/approve", s.staff(s.handleApprove))
	s.mux.HandleFunc("POST /jobs/{id}/reject", s.staff(s.handleReject))
	s.mux.HandleFunc("POST /jobs/{id}/printing", s.staff(s.handleAdvance(s.svc.MarkPrinting)))
	s.mux.HandleFunc("POST /jobs/{id}/completed", s.staff(s.handleAdvance(s.svc.MarkCompleted)))
	s.mux.HandleFunc("POST /jobs/{id}/pickedup", s.staff(s.handleAdvance(s.svc.MarkPickedUp)))
	s.mux.HandleFunc("POST /confirm/{token}", s.handleConfirm)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// staff wraps a handler with the shared-passphrase check.
func (s *Server) staff(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Staff-Key")
		if s.staffKey == "" ||
			subtle.ConstantTimeCompare([]byte(key), []byte(s.staffKey)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "staff key required")
			return
		}
		next(w, r)
	}
}

// jobResponse is the JSON representation of a job. The confirmation
// token itself is never echoed back; it travels only in the student's
// email.
type jobResponse struct {
	ID                  string   `json:"id"`
	StudentName         string   `json:"student_name"`
	StudentEmail        string   `json:"student_email"`
	Discipline          string   `json:"discipline"`
	ClassNumber         string   `json:"class_number"`
	OriginalFilename    string   `json:"original_filename"`
	DisplayName         string   `json:"display_name"`
	FilePath            string   `json:"file_path"`
	Status              string   `json:"status"`
	Printer             string   `json:"printer,omitempty"`
	Color               string   `json:"color,omitempty"`
	Material            string   `json:"material,omitempty"`
	WeightGrams         float64  `json:"weight_g,omitempty"`
	TimeHours           float64  `json:"time_hours,omitempty"`
	CostUSD             string   `json:"cost_usd,omitempty"`
	StudentConfirmed    bool     `json:"student_confirmed"`
	StudentConfirmedAt  string   `json:"student_confirmed_at,omitempty"`
	ConfirmTokenExpires string   `json:"confirm_token_expires,omitempty"`
	RejectReasons       []string `json:"reject_reasons,omitempty"`
	CreatedAt           string   `json:"created_at"`
	UpdatedAt           string   `json:"updated_at"`
	LastUpdatedBy       string   `json:"last_updated_by,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	in := domain.SubmissionInput{
		StudentName:               r.FormValue("student_name"),
		StudentEmail:              r.FormValue("student_email"),
		Discipline:                r.FormValue("discipline"),
		ClassNumber:               r.FormValue("class_number"),
		PrintMethod:               r.FormValue("print_method"),
		Color:                     r.FormValue("color"),
		OriginalFilename:          header.Filename,
		ScaledCorrectly:           formBool(r.FormValue("scaled_correctly")),
		AcknowledgedMinimumCharge: formBool(r.FormValue("minimum_charge_consent")),
	}

	job, err := s.svc.Create(r.Context(), in, file)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, jobToResponse(job))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	status := domain.Status(strings.ToUpper(r.URL.Query().Get("status")))
	if status != "" && !status.Valid() {
		s.writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	jobs, err := s.svc.List(r.Context(), status)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	out := make([]jobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, jobToResponse(&jobs[i]))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, jobToResponse(job))
}

// approveRequest is the staff pricing form.
type approveRequest struct {
	Printer     string  `json:"printer"`
	Material    string  `json:"material"`
	WeightGrams float64 `json:"weight_g"`
	TimeHours   float64 `json:"time_hours"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	job, err := s.svc.Approve(r.Context(), r.PathValue("id"), domain.ApproveInput{
		Printer:     req.Printer,
		Material:    req.Material,
		WeightGrams: req.WeightGrams,
		TimeHours:   req.TimeHours,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, jobToResponse(job))
}

type rejectRequest struct {
	Reasons []string `json:"reasons"`
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	job, err := s.svc.Reject(r.Context(), r.PathValue("id"), req.Reasons)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, jobToResponse(job))
}

func (s *Server) handleAdvance(fn func(context.Context, string) (*domain.Job, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := fn(r.Context(), r.PathValue("id"))
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, jobToResponse(job))
	}
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	job, err := s.svc.Confirm(r.Context(), r.PathValue("token"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, jobToResponse(job))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUnknownPrinter):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrJobNotFound):
		s.writeError(w, http.StatusNotFound, "job not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrTokenInvalid):
		s.writeError(w, http.StatusForbidden, domain.ErrTokenInvalid.Error())
	case errors.Is(err, pathauth.ErrNotAuthorized):
		log.Printf("security rejection: %v", err)
		s.writeError(w, http.StatusForbidden, "path not authorized")
	default:
		log.Printf("internal error: %v", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func formBool(v string) bool {
	switch strings.ToLower(v) {
	case "yes", "true", "on", "1":
		return true
	}
	return false
}

func jobToResponse(job *domain.Job) jobResponse {
	const layout = "2006-01-02T15:04:05Z"
	resp := jobResponse{
		ID:               job.ID,
		StudentName:      job.StudentName,
		StudentEmail:     job.StudentEmail,
		Discipline:       job.Discipline,
		ClassNumber:      job.ClassNumber,
		OriginalFilename: job.OriginalFilename,
		DisplayName:      job.DisplayName,
		FilePath:         job.FilePath,
		Status:           string(job.Status),
		Printer:          job.Printer,
		Color:            job.Color,
		Material:         job.Material,
		WeightGrams:      job.WeightGrams,
		TimeHours:        job.TimeHours,
		StudentConfirmed: job.StudentConfirmed,
		RejectReasons:    job.RejectReasons,
		CreatedAt:        job.CreatedAt.Format(layout),
		UpdatedAt:        job.UpdatedAt.Format(layout),
		LastUpdatedBy:    job.LastUpdatedBy,
	}
	if !job.CostUSD.IsZero() {
		resp.CostUSD = job.CostUSD.StringFixed(2)
	}
	if job.StudentConfirmedAt != nil {
		resp.StudentConfirmedAt = job.StudentConfirmedAt.Format(layout)
	}
	if job.ConfirmTokenExpires != nil {
		resp.ConfirmTokenExpires = job.ConfirmTokenExpires.Format(layout)
	}
	return resp
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ServeHTTP implements http.Handler for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Port extracts the port from the address.
func (s *Server) Port() int {
	addr := s.server.Addr
	if idx := strings.LastIndex(addr, ":"); idx >= 0 {
		port, _ := strconv.Atoi(addr[idx+1:])
		return port
	}
	return 0
}
