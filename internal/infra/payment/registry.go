package payment

import (
	"fmt"
	"sort"
	"strings"

	"hosting-payments/internal/config"
	"hosting-payments/internal/domain"
	"hosting-payments/internal/domain/ports/adapter"
)

// Registry selects the webhook provider for a request by name.
type Registry struct {
	providers map[string]adapter.WebhookProvider
}

func NewRegistry(providers ...adapter.WebhookProvider) *Registry {
	r := &Registry{providers: make(map[string]adapter.WebhookProvider, len(providers))}
	for _, p := range providers {
		r.providers[strings.ToLower(p.Name())] = p
	}
	return r
}

// NewDefaultRegistry wires every provider this service understands.
func NewDefaultRegistry(cfg config.PaymentConfig) *Registry {
	return NewRegistry(NewRazorpay(cfg.Razorpay), NewPayU(cfg.PayU))
}

func (r *Registry) Lookup(name string) (adapter.WebhookProvider, error) {
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, name)
	}
	return p, nil
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.providers))
	for n := range r.providers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
