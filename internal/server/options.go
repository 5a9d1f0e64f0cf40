package server

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"example.com/qrisgate/internal/locale"
	"example.com/qrisgate/internal/metrics"
	"example.com/qrisgate/internal/qris"
	"example.com/qrisgate/internal/service"
)

// MerchantAlias binds a short id to a merchant's static payment code so
// callers can request a dynamic code without sending the payload.
type MerchantAlias struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Payload     string `json:"-" yaml:"payload,omitempty"`
	PayloadFile string `json:"-" yaml:"payloadFile,omitempty"`
}

// Options configures server creation.
type Options struct {
	Service *service.Service
	// Merchants takes precedence over MerchantManifest when both are set.
	Merchants        []MerchantAlias
	MerchantManifest string
	DefaultLang      locale.Language
	// BaseURL prefixes download links; empty yields root-relative links.
	BaseURL string
	Logger  *zap.SugaredLogger
	Metrics *metrics.Metrics
}

// LoadMerchantManifest parses a YAML manifest listing merchant aliases.
// Relative payloadFile paths are resolved against the manifest's
// directory and every payload is checked for TLV structure.
func LoadMerchantManifest(path string) ([]MerchantAlias, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("manifest path is empty")
	}
	manifestPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "manifest path")
	}
	f, err := os.Open(manifestPath)
	if err != nil {
		return nil, errors.Wrap(err, "open manifest")
	}
	defer f.Close()
	var doc struct {
		Merchants []MerchantAlias `yaml:"merchants"`
	}
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decode manifest")
	}
	if len(doc.Merchants) == 0 {
		return nil, errors.New("manifest contains no merchants")
	}
	base := filepath.Dir(manifestPath)
	out := make([]MerchantAlias, len(doc.Merchants))
	for i, m := range doc.Merchants {
		resolved, err := resolveMerchant(base, m)
		if err != nil {
			return nil, err
		}
		out[i] = resolved
	}
	return out, nil
}

func resolveMerchant(base string, m MerchantAlias) (MerchantAlias, error) {
	m.ID = strings.TrimSpace(m.ID)
	m.Name = strings.TrimSpace(m.Name)
	m.Payload = strings.TrimSpace(m.Payload)
	m.PayloadFile = strings.TrimSpace(m.PayloadFile)
	if m.ID == "" {
		return MerchantAlias{}, errors.New("manifest merchant entry missing id")
	}
	if m.Payload == "" && m.PayloadFile == "" {
		return MerchantAlias{}, errors.Errorf("manifest merchant %s missing payload or payloadFile", m.ID)
	}
	if m.Payload == "" {
		if !filepath.IsAbs(m.PayloadFile) {
			m.PayloadFile = filepath.Join(base, m.PayloadFile)
		}
		data, err := os.ReadFile(m.PayloadFile)
		if err != nil {
			return MerchantAlias{}, errors.Wrapf(err, "merchant %s payload file", m.ID)
		}
		m.Payload = strings.TrimSpace(string(data))
	}
	return m, nil
}

type merchantEntry struct {
	name    string
	city    string
	payload string
}

func buildMerchantMap(aliases []MerchantAlias) (map[string]merchantEntry, []string, error) {
	entries := make(map[string]merchantEntry, len(aliases))
	for _, m := range aliases {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			return nil, nil, errors.New("merchant alias missing id")
		}
		if _, exists := entries[id]; exists {
			return nil, nil, errors.Errorf("duplicate merchant %s configured", id)
		}
		payload := strings.TrimSpace(m.Payload)
		p, err := qris.Parse(payload)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "merchant %s payload", id)
		}
		name, _ := p.Get(qris.TagMerchantName)
		city, _ := p.Get(qris.TagMerchantCity)
		if m.Name != "" {
			name = m.Name
		}
		entries[id] = merchantEntry{name: name, city: city, payload: payload}
	}
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return entries, ids, nil
}
