package providers

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/tornado-product/FusionMediaProvider/internal/apperrors"
	"github.com/tornado-product/FusionMediaProvider/internal/config"
)

// Constructor builds a provider from its configuration section.
type Constructor func(settings config.ProviderSettings, httpClient *http.Client) (Provider, error)

// preferredOrder lists the providers that are registered first, in this order.
// Any other registered provider follows, sorted by name.
var preferredOrder = []string{"pixabay", "pexels"}

var (
	mu           sync.RWMutex
	constructors = make(map[string]Constructor)
)

// Register adds a provider constructor under a lower-case name.
// It panics if the name is already registered or the constructor is nil.
func Register(name string, c Constructor) {
	mu.Lock()
	defer mu.Unlock()

	name = strings.ToLower(name)
	if c == nil {
		panic("providers: Register constructor is nil")
	}
	if _, exists := constructors[name]; exists {
		panic(fmt.Sprintf("providers: %q already registered", name))
	}
	constructors[name] = c
}

// Registered returns the registered provider names in registration order.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(constructors))
	for _, name := range preferredOrder {
		if _, ok := constructors[name]; ok {
			names = append(names, name)
		}
	}
	var rest []string
	for name := range constructors {
		if !slices.Contains(preferredOrder, name) {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// New builds the named provider (case-insensitive) from settings.
// Errors: ErrUnknownProvider, ErrProviderNotEnabled when disabled, ErrAPIKeyEmpty.
func New(name string, settings config.ProviderSettings, httpClient *http.Client) (Provider, error) {
	mu.RLock()
	c, ok := constructors[strings.ToLower(name)]
	mu.RUnlock()

	if !ok {
		return nil, &apperrors.ErrUnknownProvider{Name: name}
	}
	if settings.Disabled {
		return nil, &apperrors.ErrProviderNotEnabled{Name: name}
	}
	if strings.TrimSpace(settings.APIKey) == "" {
		return nil, &apperrors.ErrAPIKeyEmpty{Provider: name}
	}
	return c(settings, httpClient)
}

// FromConfig builds every registered provider that is enabled and has an API key,
// in registration order. Skipped providers are logged at debug level.
func FromConfig(cfg *config.Config, httpClient *http.Client) ([]Provider, error) {
	logger := config.GetLogger()

	var out []Provider
	for _, name := range Registered() {
		settings := lookupSettings(cfg.Providers, name)
		p, err := New(name, settings, httpClient)
		if err != nil {
			var keyErr *apperrors.ErrAPIKeyEmpty
			var disabledErr *apperrors.ErrProviderNotEnabled
			if errors.As(err, &keyErr) || errors.As(err, &disabledErr) {
				logger.Debug().Str("provider", name).Err(err).Msg("Skipping provider")
				continue
			}
			return nil, fmt.Errorf("failed to create provider %s: %w", name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// lookupSettings finds the settings section for name, ignoring case.
func lookupSettings(all map[string]config.ProviderSettings, name string) config.ProviderSettings {
	if s, ok := all[name]; ok {
		return s
	}
	for key, s := range all {
		if strings.EqualFold(key, name) {
			return s
		}
	}
	return config.ProviderSettings{}
}
