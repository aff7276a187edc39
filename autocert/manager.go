package autocert

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"

	"golang.org/x/crypto/acme/autocert"
)

// Manager wraps autocert.Manager to support dynamic domain updates
type Manager struct {
	manager  *autocert.Manager
	mu       sync.RWMutex
	domains  []string
	cacheDir string
}

// NewManager creates and configures a new autocert manager.
func NewManager(domains []string, cacheDir string) *Manager {
	m := &Manager{
		domains:  normalize(domains),
		cacheDir: cacheDir,
	}
	m.manager = &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: m.hostPolicy,
		Cache:      autocert.DirCache(cacheDir),
	}
	return m
}

// hostPolicy reads the current domain list so updates apply without
// rebuilding the TLS config handed to the server.
func (m *Manager) hostPolicy(_ context.Context, host string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if slices.Contains(m.domains, strings.ToLower(host)) {
		return nil
	}
	return fmt.Errorf("acme/autocert: host %q not configured", host)
}

// UpdateDomains updates the allowed domains for certificate generation
func (m *Manager) UpdateDomains(domains []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.domains = normalize(domains)
}

// GetDomains returns the current list of allowed domains
func (m *Manager) GetDomains() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.domains...)
}

// TLSConfig returns a TLS config that obtains certificates on demand.
func (m *Manager) TLSConfig() *tls.Config {
	return m.manager.TLSConfig()
}

// HTTPHandler answers ACME HTTP-01 challenges and passes other requests to fallback.
func (m *Manager) HTTPHandler(fallback http.Handler) http.Handler {
	return m.manager.HTTPHandler(fallback)
}

func normalize(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" && !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	return out
}
