package notifications

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Template is the title and body of a notification kind, with {name}
// placeholders. Variables documents the expected data keys; it is not
// enforced.
type Template struct {
	Title     string   `json:"title" yaml:"title"`
	Message   string   `json:"message" yaml:"message"`
	Variables []string `json:"variables,omitempty" yaml:"variables"`
}

// DefaultTemplates returns the built-in templates.
func DefaultTemplates() map[Type]Template {
	return map[Type]Template{
		TypeTradeAlert: {
			Title:     "Trade Executed: {side} {symbol}",
			Message:   "{agent} executed a {side} order for {quantity} {symbol} at ${price}",
			Variables: []string{"symbol", "side", "quantity", "price", "agent"},
		},
		TypePriceAlert: {
			Title:     "Price Alert: {symbol} at ${currentPrice}",
			Message:   "{symbol} moved {direction} your target of ${target}. Current price: ${currentPrice}",
			Variables: []string{"symbol", "currentPrice", "target", "direction"},
		},
		TypeSystemAlert: {
			Title:     "System Alert: {title}",
			Message:   "{message}",
			Variables: []string{"title", "message"},
		},
		TypeAIInsight: {
			Title:     "AI Insight: {symbol}",
			Message:   "{agent} analysis for {symbol}: {insight} (confidence {confidence}%)",
			Variables: []string{"symbol", "agent", "insight", "confidence"},
		},
		TypePortfolioUpdate: {
			Title:     "Portfolio Update",
			Message:   "Portfolio value is ${totalValue} ({change}% over {period})",
			Variables: []string{"totalValue", "change", "period"},
		},
	}
}

// Registry maps notification types to templates. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates map[Type]Template
}

// NewRegistry returns a registry holding the built-in templates.
func NewRegistry() *Registry {
	return &Registry{templates: DefaultTemplates()}
}

// Register stores t under typ, replacing any existing template.
func (r *Registry) Register(typ Type, t Template) {
	t.Variables = slices.Clone(t.Variables)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[typ] = t
}

// RegisterAll registers every template in ts.
func (r *Registry) RegisterAll(ts map[Type]Template) {
	for typ, t := range ts {
		r.Register(typ, t)
	}
}

// Lookup returns the template registered under typ.
func (r *Registry) Lookup(typ Type) (Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[typ]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, typ)
	}
	t.Variables = slices.Clone(t.Variables)
	return t, nil
}

// Types lists registered keys in sorted order.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Type, 0, len(r.templates))
	for typ := range r.templates {
		out = append(out, typ)
	}
	slices.Sort(out)
	return out
}

// LoadTemplates decodes a YAML mapping of type key to template:
//
//	whale_alert:
//	  title: "Whale move on {symbol}"
//	  message: "{amount} {symbol} moved to {exchange}"
//	  variables: [symbol, amount, exchange]
func LoadTemplates(r io.Reader) (map[Type]Template, error) {
	var raw map[string]Template
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return map[Type]Template{}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}

	out := make(map[Type]Template, len(raw))
	for key, t := range raw {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%w: empty type key", ErrInvalidTemplate)
		}
		if t.Title == "" && t.Message == "" {
			return nil, fmt.Errorf("%w: %s has neither title nor message", ErrInvalidTemplate, key)
		}
		out[Type(key)] = t
	}
	return out, nil
}
