package web

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"barreltech/internal/adapters/http/middleware"
	"barreltech/internal/adapters/storage"
	enrollmentStore "barreltech/internal/adapters/storage/enrollment"
	"barreltech/internal/application/orchestrators"
	"barreltech/internal/domain/enrollment"
)

// maxBodyBytes caps enrollment request bodies.
const maxBodyBytes = 64 << 10

// Response messages shared by all enrollment routes.
const (
	msgFieldsRequired = "All fields are required."
	msgInvalidBody    = "Invalid request body."
	msgSQLiteDown     = "SQLite not connected."
)

// enrollRoute binds one URL to one backend and its response wording.
type enrollRoute struct {
	store   func(Backends) enrollmentStore.Store
	success string
	failure string
}

var (
	mongoRoute = enrollRoute{
		store:   func(b Backends) enrollmentStore.Store { return b.Mongo },
		success: "Registered successfully and email sent!",
		failure: "Failed to register.",
	}
	sqliteRoute = enrollRoute{
		store:   func(b Backends) enrollmentStore.Store { return b.SQLite },
		success: "Registered successfully in SQLite and email sent!",
		failure: "Failed to register in SQLite.",
	}
	excelRoute = enrollRoute{
		store:   func(b Backends) enrollmentStore.Store { return b.Excel },
		success: "Registered successfully in Excel and email sent!",
		failure: "Failed to register in Excel.",
	}
)

type messageResponse struct {
	Message string `json:"message"`
}

type enrollResponse struct {
	Message string `json:"message"`
	ID      *int64 `json:"id,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
	Port   int    `json:"port"`
	Mongo  string `json:"mongo"`
	SQLite string `json:"sqlite"`
	Excel  string `json:"excel"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response_encode_failed", "error", err.Error())
	}
}

// decodeEnrollInput reads the three fields from a form body, or else from a
// JSON body whatever its Content-Type. An empty body decodes to empty fields
// so validation reports them.
func decodeEnrollInput(w http.ResponseWriter, r *http.Request) (orchestrators.EnrollInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if middleware.IsFormEncoded(r) {
		var err error
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			err = r.ParseMultipartForm(maxBodyBytes)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			return orchestrators.EnrollInput{}, err
		}
		return orchestrators.EnrollInput{
			FullName: r.PostForm.Get("fullName"),
			Email:    r.PostForm.Get("email"),
			Course:   r.PostForm.Get("course"),
		}, nil
	}

	var input orchestrators.EnrollInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		return orchestrators.EnrollInput{}, err
	}
	return input, nil
}

// enrollHandler builds the handler for one enrollment route.
// PRE: route.store(s.deps.Backends) is non-nil
// POST: 400 on missing fields, 500 on storage failure, 201 on success;
// form posts are redirected to /?enrolled=ok|failed instead
func (s *Server) enrollHandler(route enrollRoute) http.Handler {
	deps := orchestrators.EnrollDeps{
		Store:    route.store(s.deps.Backends),
		Notifier: s.deps.Notifier,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := middleware.IsFormEncoded(r)
		input, err := decodeEnrollInput(w, r)
		if err != nil {
			slog.Warn("enrollment_bad_request", "path", r.URL.Path, "error", err.Error())
			if form {
				http.Redirect(w, r, "/?enrolled=failed", http.StatusSeeOther)
				return
			}
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgInvalidBody})
			return
		}

		result, err := orchestrators.ExecuteEnroll(r.Context(), input, deps)
		if form {
			outcome := "ok"
			if err != nil {
				outcome = "failed"
			}
			http.Redirect(w, r, "/?enrolled="+outcome, http.StatusSeeOther)
			return
		}

		var validationErr *enrollment.ValidationError
		switch {
		case errors.As(err, &validationErr):
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgFieldsRequired})
			return
		case errors.Is(err, storage.ErrNotConnected):
			writeJSON(w, http.StatusInternalServerError, messageResponse{Message: msgSQLiteDown})
			return
		case err != nil:
			writeJSON(w, http.StatusInternalServerError, messageResponse{Message: route.failure})
			return
		}

		resp := enrollResponse{Message: route.success}
		if result.Receipt.HasID {
			id := result.Receipt.ID
			resp.ID = &id
		}
		writeJSON(w, http.StatusCreated, resp)
	})
}

// handleHealth reports static per-backend status; it never pings a backend.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	b := s.deps.Backends
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Port:   s.cfg.Port,
		Mongo:  b.Mongo.Status(),
		SQLite: b.SQLite.Status(),
		Excel:  b.Excel.Status(),
	})
}

func (s *Server) handleTestEmail(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := orchestrators.ExecuteSendTestEmail(r.Context(), s.deps.Mail); err != nil {
		slog.Error("test_email_failed", "error", err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "Email failed: "+err.Error())
		return
	}
	_, _ = io.WriteString(w, "Test email sent successfully!")
}

type indexPage struct {
	Courses   []string
	Endpoint  string
	CSRFField template.HTML
	Enrolled  string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexPage{
		Courses:   s.cfg.Courses,
		Endpoint:  s.cfg.FormEndpoint,
		CSRFField: csrf.TemplateField(r),
		Enrolled:  r.URL.Query().Get("enrolled"),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.Error("template_render_failed", "template", "index.html", "error", err.Error())
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
