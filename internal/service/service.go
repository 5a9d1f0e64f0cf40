package service

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"example.com/qrisgate/internal/cache"
	"example.com/qrisgate/internal/locale"
	"example.com/qrisgate/internal/metrics"
	"example.com/qrisgate/internal/qris"
	"example.com/qrisgate/internal/render"
)

var (
	// ErrNotFoundOrExpired covers both unknown and expired artifact ids.
	ErrNotFoundOrExpired = errors.New("artifact not found or expired")
	// ErrUnknownMerchant is returned for a merchant alias that is not configured.
	ErrUnknownMerchant = errors.New("unknown merchant")
)

const (
	contentTypePNG = "image/png"
	contentTypePDF = "application/pdf"
)

// Renderer turns a final payload into image bytes.
type Renderer interface {
	Render(payload string) ([]byte, error)
}

// ReceiptRenderer lays out a printable receipt.
type ReceiptRenderer func(render.Receipt, locale.Translator) ([]byte, error)

// GenerateRequest is one request to turn a payload into a dynamic code.
// An empty Mode selects the service default.
type GenerateRequest struct {
	Payload string
	Amount  string
	Mode    qris.Mode
	Receipt bool
	Lang    locale.Language
}

// Merchant is the display identity read from tags 59 and 60.
type Merchant struct {
	Name string
	City string
}

// Result describes a generated dynamic code and its stored artifacts.
type Result struct {
	Payload     string
	Amount      decimal.Decimal
	Mode        qris.Mode
	ArtifactID  string
	ReceiptID   string
	Image       []byte
	GeneratedAt time.Time
	ExpiresAt   time.Time
	Merchant    Merchant
}

// Options configures a Service.
type Options struct {
	Cache       *cache.Cache
	Renderer    Renderer
	Receipts    ReceiptRenderer
	DefaultMode qris.Mode
	TTL         time.Duration
	Logger      *zap.SugaredLogger
	Metrics     *metrics.Metrics
}

// Service generates dynamic payment codes and serves them back by id.
type Service struct {
	cache    *cache.Cache
	renderer Renderer
	receipts ReceiptRenderer
	mode     qris.Mode
	ttl      time.Duration
	logger   *zap.SugaredLogger
	metrics  *metrics.Metrics
}

// New validates opts and builds a Service.
func New(opts Options) (*Service, error) {
	if opts.Cache == nil {
		return nil, errors.New("service: cache is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("service: renderer is required")
	}
	mode := opts.DefaultMode
	if mode == "" {
		mode = qris.ModeStatic
	}
	if _, err := qris.ParseMode(string(mode)); err != nil {
		return nil, err
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	receipts := opts.Receipts
	if receipts == nil {
		receipts = render.RenderReceiptPDF
	}
	return &Service{
		cache:    opts.Cache,
		renderer: opts.Renderer,
		receipts: receipts,
		mode:     mode,
		ttl:      ttl,
		logger:   logger,
		metrics:  opts.Metrics,
	}, nil
}

// DefaultMode reports the mode used when a request leaves it empty.
func (s *Service) DefaultMode() qris.Mode {
	return s.mode
}

// Generate rewrites req.Payload with req.Amount, renders it and stores the
// image (and optionally a PDF receipt) for later download.
func (s *Service) Generate(req GenerateRequest) (Result, error) {
	raw := strings.TrimSpace(req.Payload)
	if raw == "" || strings.TrimSpace(req.Amount) == "" {
		return Result{}, errors.Wrap(qris.ErrMissingInput, "amount and payload are required")
	}
	amount, err := qris.ParseAmount(req.Amount)
	if err != nil {
		return Result{}, err
	}
	mode := req.Mode
	if mode == "" {
		mode = s.mode
	}
	final, err := qris.Rewrite(raw, amount, mode)
	if err != nil {
		return Result{}, err
	}

	started := time.Now()
	img, err := s.renderer.Render(final)
	s.metrics.ObserveRender(time.Since(started))
	if err != nil {
		s.logger.Errorw("render qr image", "mode", mode, "error", err)
		if !errors.Is(err, render.ErrRender) {
			err = errors.Wrapf(render.ErrRender, "%v", err)
		}
		return Result{}, err
	}

	merchant := merchantOf(final)
	generatedAt := s.cache.Now()
	id := s.cache.Put(cache.Artifact{
		Name:        artifactName(merchant, "png"),
		ContentType: contentTypePNG,
		Data:        img,
	}, s.ttl)
	res := Result{
		Payload:     final,
		Amount:      amount,
		Mode:        mode,
		ArtifactID:  id,
		Image:       img,
		GeneratedAt: generatedAt,
		ExpiresAt:   generatedAt.Add(s.ttl),
		Merchant:    merchant,
	}

	if req.Receipt {
		receiptID, err := s.storeReceipt(res, req.Lang)
		if err != nil {
			return Result{}, err
		}
		res.ReceiptID = receiptID
	}

	s.metrics.IncGenerated(string(mode))
	s.metrics.SetCacheEntries(s.cache.Len())
	s.logger.Infow("generated dynamic code", "mode", mode, "artifact", id, "receipt", res.ReceiptID)
	return res, nil
}

func (s *Service) storeReceipt(res Result, lang locale.Language) (string, error) {
	started := time.Now()
	doc, err := s.receipts(render.Receipt{
		Reference:    res.ArtifactID,
		MerchantName: res.Merchant.Name,
		MerchantCity: res.Merchant.City,
		Amount:       res.Amount,
		Payload:      res.Payload,
		QR:           res.Image,
		GeneratedAt:  res.GeneratedAt,
		ExpiresAt:    res.ExpiresAt,
	}, locale.NewTranslator(lang))
	s.metrics.ObserveRender(time.Since(started))
	if err != nil {
		s.logger.Errorw("render receipt", "artifact", res.ArtifactID, "error", err)
		if !errors.Is(err, render.ErrRender) {
			err = errors.Wrapf(render.ErrRender, "%v", err)
		}
		return "", err
	}
	return s.cache.Put(cache.Artifact{
		Name:        artifactName(res.Merchant, "pdf"),
		ContentType: contentTypePDF,
		Data:        doc,
	}, s.ttl), nil
}

// Resolve returns a stored artifact while it is live.
func (s *Service) Resolve(id string) (cache.Artifact, error) {
	art, ok := s.cache.Get(strings.TrimSpace(id))
	if !ok {
		s.metrics.IncDownload("miss")
		return cache.Artifact{}, ErrNotFoundOrExpired
	}
	s.metrics.IncDownload("hit")
	return art, nil
}

func merchantOf(payload string) Merchant {
	p, err := qris.Parse(payload)
	if err != nil {
		return Merchant{}
	}
	name, _ := p.Get(qris.TagMerchantName)
	city, _ := p.Get(qris.TagMerchantCity)
	return Merchant{Name: name, City: city}
}

func artifactName(m Merchant, ext string) string {
	base := slug(m.Name)
	if base == "" {
		base = "qris"
	} else {
		base = "qris-" + base
	}
	return base + "." + ext
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
