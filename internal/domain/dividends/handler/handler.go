// Package handler exposes the dividend endpoints over HTTP.
package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/diviflow/internal/domain/auth"
	"github.com/FACorreiaa/diviflow/internal/domain/dividends/extract"
	"github.com/FACorreiaa/diviflow/internal/domain/dividends/repository"
	"github.com/FACorreiaa/diviflow/internal/domain/dividends/service"
	"github.com/FACorreiaa/diviflow/pkg/money"
	"github.com/FACorreiaa/diviflow/pkg/pdftext"
)

// Handler serves the dividend routes. All routes require an authenticated
// principal resolved by the auth middleware.
type Handler struct {
	svc      *service.DividendService
	maxBytes int64
	metrics  *Metrics
	logger   *slog.Logger
}

func NewHandler(svc *service.DividendService, maxBytes int64, metrics *Metrics, logger *slog.Logger) *Handler {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, maxBytes: maxBytes, metrics: metrics, logger: logger}
}

// Routes mounts the dividend endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/dividends/upload", h.Upload)
	r.Get("/api/dividends", h.List)
	r.Get("/api/dividends/summary", h.Summary)
}

type uploadEnvelope struct {
	FileData string `json:"fileData"`
	FileName string `json:"fileName"`
}

type uploadResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Amount     string `json:"amount,omitempty"`
	PayDate    string `json:"payDate,omitempty"`
	ISIN       string `json:"isin,omitempty"`
	IssuerName string `json:"issuerName,omitempty"`
}

// Upload accepts one statement, either as a multipart "file" part or as a
// JSON envelope carrying a base64 data URL, and runs it through the
// extraction pipeline.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	document, fileName, err := readDocument(r)
	if err != nil {
		h.metrics.observe("rejected")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.ProcessUpload(r.Context(), ownerID, fileName, document)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	resp := uploadResponse{
		Status:  string(result.Outcome),
		Message: result.Message,
	}
	if result.Outcome == service.OutcomeCreated {
		resp.Amount = money.New(result.Fact.AmountCents, result.Fact.Currency).String()
		resp.PayDate = result.Fact.PayDate.Format("2006-01-02")
		resp.ISIN = result.Fact.ISIN
		resp.IssuerName = result.Fact.IssuerName
	}
	h.metrics.observe(string(result.Outcome))
	writeJSON(w, http.StatusOK, resp)
}

// List returns the principal's stored dividends, newest pay date first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	facts, err := h.svc.ListDividends(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("list dividends", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "could not load dividends")
		return
	}
	if facts == nil {
		facts = []repository.Fact{}
	}
	writeJSON(w, http.StatusOK, facts)
}

// Summary returns per-month payout totals for the principal.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	totals, err := h.svc.MonthlySummary(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("monthly summary", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "could not load summary")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"months": totals})
}

func (h *Handler) writeUploadError(w http.ResponseWriter, err error) {
	var normErr *extract.NormalizationError
	switch {
	case errors.Is(err, pdftext.ErrUnreadable):
		h.metrics.observe("unreadable")
		writeError(w, http.StatusBadRequest,
			"We could not read this document. Please check that it is a valid PDF statement.")
	case errors.Is(err, extract.ErrAmountNotFound):
		h.metrics.observe("failed")
		writeError(w, http.StatusBadRequest,
			"No dividend amount was found. This statement format may not be supported yet.")
	case errors.As(err, &normErr):
		h.metrics.observe("failed")
		writeError(w, http.StatusBadRequest,
			"A value in this statement could not be interpreted: "+normErr.Raw)
	default:
		h.metrics.observe("error")
		h.logger.Error("upload failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Something went wrong while saving. Please try again.")
	}
}

// readDocument normalizes both accepted encodings to raw bytes.
func readDocument(r *http.Request) ([]byte, string, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", errors.New("missing multipart part \"file\"")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", errors.New("could not read uploaded file")
		}
		return data, header.Filename, nil
	}

	var envelope uploadEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		return nil, "", errors.New("invalid request body")
	}
	data, err := decodeDataURL(envelope.FileData)
	if err != nil {
		return nil, "", err
	}
	return data, envelope.FileName, nil
}

// decodeDataURL accepts "data:<mime>;base64,<payload>" and bare base64.
func decodeDataURL(fileData string) ([]byte, error) {
	if fileData == "" {
		return nil, errors.New("fileData is required")
	}
	payload := fileData
	if strings.HasPrefix(fileData, "data:") {
		_, rest, found := strings.Cut(fileData, ",")
		if !found {
			return nil, errors.New("malformed data URL")
		}
		payload = rest
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.New("fileData is not valid base64")
	}
	if len(data) == 0 {
		return nil, errors.New("fileData is empty")
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
