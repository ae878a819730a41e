// Package httpclient builds the HTTP clients used for provider API calls and
// media transfers from the application configuration.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/tornado-product/FusionMediaProvider/internal/config"
)

const (
	defaultAPITimeout = 30 * time.Second
	// transferHeaderTimeout bounds the wait for response headers of a transfer.
	// The body itself may take as long as it needs.
	transferHeaderTimeout = 60 * time.Second
)

// NewAPIClient returns the client used for provider JSON APIs: overall timeout
// from client_timeout, optional proxy, compressed responses and the configured User-Agent.
func NewAPIClient(cfg *config.Config) *http.Client {
	timeout := config.ParseDuration("client_timeout", cfg.ClientTimeout, defaultAPITimeout)

	return &http.Client{
		Timeout: timeout,
		Transport: &userAgentTransport{
			base:      NewCompressionTransport(newBaseTransport(cfg.ProxyConnectionString)),
			userAgent: userAgent(cfg),
		},
	}
}

// NewTransferClient returns the client used for binary media transfers. It has no
// overall timeout and no content decoding so Content-Length and Range stay intact.
func NewTransferClient(cfg *config.Config) *http.Client {
	base := newBaseTransport(cfg.ProxyConnectionString)
	base.ResponseHeaderTimeout = transferHeaderTimeout
	base.DisableCompression = true

	return &http.Client{
		Transport: &userAgentTransport{base: base, userAgent: userAgent(cfg)},
	}
}

func userAgent(cfg *config.Config) string {
	if cfg.UserAgent != "" {
		return cfg.UserAgent
	}
	return config.DefaultUserAgent
}

// newBaseTransport clones http.DefaultTransport and applies the proxy setting.
// http(s) proxies go through Transport.Proxy, socks5 proxies through a custom dialer.
func newBaseTransport(proxyConnectionString string) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyConnectionString == "" {
		return transport
	}

	logger := config.GetLogger()
	proxyURL, err := url.Parse(proxyConnectionString)
	if err != nil || proxyURL.Host == "" {
		logger.Warn().Err(err).Str("proxy", proxyConnectionString).Msg("Invalid proxy URL, continuing without proxy")
		return transport
	}

	if !strings.HasPrefix(proxyURL.Scheme, "socks5") {
		transport.Proxy = http.ProxyURL(proxyURL)
		return transport
	}

	var auth *proxy.Auth
	if proxyURL.User != nil {
		password, _ := proxyURL.User.Password()
		auth = &proxy.Auth{User: proxyURL.User.Username(), Password: password}
	}
	dialer, err := proxy.SOCKS5("tcp", proxyURL.Host, auth, proxy.Direct)
	if err != nil {
		logger.Warn().Err(err).Str("proxy", proxyURL.Redacted()).Msg("Failed to create SOCKS5 dialer, continuing without proxy")
		return transport
	}

	transport.Proxy = nil
	if ctxDialer, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = ctxDialer.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	logger.Debug().Str("proxy", proxyURL.Redacted()).Msg("Using SOCKS5 proxy")
	return transport
}
