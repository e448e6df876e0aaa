// Package settings keeps the business profile printed on quotes and
// invoices. It lives outside the database in a small key-value store.
package settings

import (
	"context"
	"strings"
	"sync"

	"github.com/diewo77/ecotrim/internal/apperr"
	"github.com/diewo77/ecotrim/validation"
)

// Settings is the business profile.
type Settings struct {
	CompanyName string `json:"company_name" yaml:"company_name" schema:"company_name" validate:"required,max=255"`
	BankDetails string `json:"bank_details" yaml:"bank_details" schema:"bank_details" validate:"max=1000"`
	Terms       string `json:"terms" yaml:"terms" schema:"terms" validate:"max=4000"`
}

// Defaults is the profile used until the owner saves one.
func Defaults() Settings {
	return Settings{
		CompanyName: "Eco Trim Enterprise",
		BankDetails: "MAYBANK: 564762369335",
		Terms:       "Quote valid for 30 days.\n50% deposit secures booking.\nBalance due upon completion.",
	}
}

// TermLines splits Terms for display.
func (s Settings) TermLines() []string {
	var out []string
	for _, l := range strings.Split(s.Terms, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Store loads and saves the whole profile. Load returns Defaults when nothing
// was saved yet; Save replaces whatever was there.
type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}

// Validate checks field lengths and the required company name.
func (s Settings) Validate() error {
	return apperr.NewValidation(validation.Struct(s))
}

// Provider holds the current profile in memory. It is created once at
// startup and handed to the components that print or edit the profile.
type Provider struct {
	store Store
	mu    sync.RWMutex
	cur   Settings
}

// NewProvider loads the profile from store.
func NewProvider(ctx context.Context, store Store) (*Provider, error) {
	s, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Provider{store: store, cur: s}, nil
}

// Current returns a copy of the profile.
func (p *Provider) Current() Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cur
}

// Update persists s and makes it current. The last writer wins.
func (p *Provider) Update(ctx context.Context, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.store.Save(ctx, s); err != nil {
		return err
	}
	p.cur = s
	return nil
}
