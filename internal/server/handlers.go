package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"example.com/qrisgate/internal/common"
	"example.com/qrisgate/internal/locale"
	"example.com/qrisgate/internal/metrics"
	"example.com/qrisgate/internal/qris"
	"example.com/qrisgate/internal/render"
	"example.com/qrisgate/internal/service"
)

const (
	maxBodyBytes    = 64 << 10
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"

	msgMissingInput = "Amount and QRIS code are required"
)

// Server exposes the generate and download operations over HTTP.
type Server struct {
	svc         *service.Service
	merchants   map[string]merchantEntry
	merchantIDs []string
	lang        locale.Language
	baseURL     string
	logger      *zap.SugaredLogger
	metrics     *metrics.Metrics
}

// NewServer validates opts and loads the merchant aliases.
func NewServer(opts Options) (*Server, error) {
	if opts.Service == nil {
		return nil, errors.New("server: service is required")
	}
	aliases := opts.Merchants
	if len(aliases) == 0 && strings.TrimSpace(opts.MerchantManifest) != "" {
		var err error
		aliases, err = LoadMerchantManifest(opts.MerchantManifest)
		if err != nil {
			return nil, errors.Wrap(err, "load merchant manifest")
		}
	}
	merchants, ids, err := buildMerchantMap(aliases)
	if err != nil {
		return nil, err
	}
	lang := opts.DefaultLang
	if lang == "" {
		lang = locale.LangIndonesian
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{
		svc:         opts.Service,
		merchants:   merchants,
		merchantIDs: ids,
		lang:        lang,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		logger:      logger,
		metrics:     opts.Metrics,
	}, nil
}

type generateParams struct {
	Amount   amountParam `json:"amount"`
	QRISCode string      `json:"qrisCode"`
	Merchant string      `json:"merchant"`
	Mode     string      `json:"mode"`
	Receipt  bool        `json:"receipt"`
	Lang     string      `json:"lang"`
}

// amountParam accepts the amount as either a JSON number or a string.
type amountParam string

func (a *amountParam) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountParam(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = amountParam(n.String())
	return nil
}

type generateResponse struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Data      generateData `json:"data"`
}

type generateData struct {
	Amount          json.Number `json:"amount"`
	FormattedAmount string      `json:"formatted_amount"`
	GeneratedAt     string      `json:"generated_at"`
	QRISContent     string      `json:"qris_content"`
	QRImage         string      `json:"qr_image"`
	Mode            string      `json:"mode"`
	ArtifactID      string      `json:"artifact_id"`
	DownloadURL     string      `json:"download_url"`
	ExpiresAt       string      `json:"expires_at"`
	ReceiptID       string      `json:"receipt_id,omitempty"`
	ReceiptURL      string      `json:"receipt_url,omitempty"`
	MerchantName    string      `json:"merchant_name,omitempty"`
	MerchantCity    string      `json:"merchant_city,omitempty"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	receipt, _ := strconv.ParseBool(q.Get("receipt"))
	s.generate(w, generateParams{
		Amount:   amountParam(q.Get("amount")),
		QRISCode: q.Get("qrisCode"),
		Merchant: q.Get("merchant"),
		Mode:     q.Get("mode"),
		Receipt:  receipt,
		Lang:     q.Get("lang"),
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var params generateParams
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&params); err != nil {
		s.writeError(w, errors.Wrapf(errBadRequest, "decode request: %v", err))
		return
	}
	s.generate(w, params)
}

func (s *Server) generate(w http.ResponseWriter, params generateParams) {
	payload := strings.TrimSpace(params.QRISCode)
	if payload == "" && strings.TrimSpace(params.Merchant) != "" {
		m, ok := s.merchants[strings.TrimSpace(params.Merchant)]
		if !ok {
			s.writeError(w, errors.Wrapf(service.ErrUnknownMerchant, "merchant %q", params.Merchant))
			return
		}
		payload = m.payload
	}

	var mode qris.Mode
	if strings.TrimSpace(params.Mode) != "" {
		parsed, err := qris.ParseMode(params.Mode)
		if err != nil {
			s.writeError(w, err)
			return
		}
		mode = parsed
	}

	lang, err := locale.ParseLanguage(params.Lang)
	if err != nil || strings.TrimSpace(params.Lang) == "" {
		lang = s.lang
	}

	res, err := s.svc.Generate(service.GenerateRequest{
		Payload: payload,
		Amount:  string(params.Amount),
		Mode:    mode,
		Receipt: params.Receipt,
		Lang:    lang,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	tr := locale.NewTranslator(lang)
	data := generateData{
		Amount:          json.Number(res.Amount.String()),
		FormattedAmount: tr.FormatAmount(res.Amount),
		GeneratedAt:     tr.FormatTimestamp(res.GeneratedAt),
		QRISContent:     res.Payload,
		QRImage:         "data:image/png;base64," + base64.StdEncoding.EncodeToString(res.Image),
		Mode:            string(res.Mode),
		ArtifactID:      res.ArtifactID,
		DownloadURL:     s.downloadURL(res.ArtifactID),
		ExpiresAt:       res.ExpiresAt.UTC().Format(timestampLayout),
		MerchantName:    res.Merchant.Name,
		MerchantCity:    res.Merchant.City,
	}
	if res.ReceiptID != "" {
		data.ReceiptID = res.ReceiptID
		data.ReceiptURL = s.downloadURL(res.ReceiptID)
	}
	s.writeJSON(w, http.StatusOK, generateResponse{
		Status:    "success",
		Timestamp: res.GeneratedAt.UTC().Format(timestampLayout),
		Data:      data,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	art, err := s.svc.Resolve(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	etag := common.ETag(art.Data)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Expires", art.ExpiresAt.UTC().Format(http.TimeFormat))
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	contentType := art.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.Header().Set("Content-Disposition", "attachment; filename=\""+art.Name+"\"")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(art.Data); err != nil {
		s.logger.Warnw("write artifact", "artifact", art.ID, "error", err)
	}
}

type merchantSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city,omitempty"`
}

func (s *Server) handleMerchants(w http.ResponseWriter, _ *http.Request) {
	out := make([]merchantSummary, 0, len(s.merchantIDs))
	for _, id := range s.merchantIDs {
		m := s.merchants[id]
		out = append(out, merchantSummary{ID: id, Name: m.name, City: m.city})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"merchants": out})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

func (s *Server) downloadURL(id string) string {
	return s.baseURL + "/api/download/" + id
}

var errBadRequest = errors.New("bad request")

var errorTable = []struct {
	err    error
	status int
	code   string
}{
	{err: qris.ErrMissingInput, status: http.StatusBadRequest, code: "MISSING_INPUT"},
	{err: qris.ErrInvalidAmount, status: http.StatusBadRequest, code: "INVALID_AMOUNT"},
	{err: qris.ErrMalformedPayload, status: http.StatusBadRequest, code: "MALFORMED_PAYLOAD"},
	{err: qris.ErrValueTooLong, status: http.StatusBadRequest, code: "VALUE_TOO_LONG"},
	{err: qris.ErrInvalidMode, status: http.StatusBadRequest, code: "INVALID_MODE"},
	{err: service.ErrUnknownMerchant, status: http.StatusBadRequest, code: "UNKNOWN_MERCHANT"},
	{err: errBadRequest, status: http.StatusBadRequest, code: "BAD_REQUEST"},
	{err: service.ErrNotFoundOrExpired, status: http.StatusNotFound, code: "NOT_FOUND"},
	{err: render.ErrRender, status: http.StatusInternalServerError, code: "RENDER_ERROR"},
}

func classify(err error) (int, string) {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	message := err.Error()
	switch code {
	case "MISSING_INPUT":
		message = msgMissingInput
	case "NOT_FOUND":
		message = service.ErrNotFoundOrExpired.Error()
	case "RENDER_ERROR":
		message = "failed to render payment code"
	case "INTERNAL_ERROR":
		message = "internal error"
	}
	if status >= http.StatusInternalServerError {
		s.logger.Errorw("request failed", "code", code, "error", err)
	}
	if code != "NOT_FOUND" {
		s.metrics.IncFailure(code)
	}
	s.writeJSON(w, status, errorResponse{Status: "error", Code: code, Message: message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warnw("write json response", "status", status, "error", err)
	}
}
