package catalog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultResolverURL points at a service that maps a star identifier to its
// spectral classification, returned as plain text.
const defaultResolverURL = "https://simbad.u-strasbg.fr/simbad/sim-id"

// Resolver looks up spectral classifications by star name. Lookup failures
// are swallowed: batch pipelines must keep running when the catalog service
// is down, so a failed resolution is an empty classification, never an
// error.
type Resolver struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithBaseURL points the resolver at a different service endpoint.
func WithBaseURL(u string) ResolverOption {
	return func(r *Resolver) { r.baseURL = u }
}

// WithHTTPClient replaces the default client (10 s timeout).
func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) { r.client = c }
}

// WithResolverLogger routes lookup failures to a logger at debug level.
func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver returns a Resolver against the default catalog service.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		baseURL: defaultResolverURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SpectralType resolves the star's spectral classification. Archive file
// names write Henry Draper identifiers without the space the catalog
// expects, so a failed "HD..." lookup is retried with the space restored.
// All failures return "".
func (r *Resolver) SpectralType(ctx context.Context, star string) string {
	if sp, ok := r.query(ctx, star); ok {
		return sp
	}

	if strings.HasPrefix(star, "HD") && !strings.HasPrefix(star, "HD ") {
		if sp, ok := r.query(ctx, "HD "+strings.TrimPrefix(star, "HD")); ok {
			return sp
		}
	}

	return ""
}

func (r *Resolver) query(ctx context.Context, star string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		r.baseURL+"?name="+url.QueryEscape(star), nil)
	if err != nil {
		r.debug("building resolver request", star, err)
		return "", false
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.debug("resolver request failed", star, err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.debug("resolver status", star, nil, slog.Int("status", resp.StatusCode))
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		r.debug("reading resolver response", star, err)
		return "", false
	}

	sp := strings.TrimSpace(string(body))
	if sp == "" {
		return "", false
	}
	if i := strings.IndexByte(sp, '\n'); i >= 0 {
		sp = strings.TrimSpace(sp[:i])
	}

	return sp, true
}

func (r *Resolver) debug(msg, star string, err error, args ...any) {
	if r.logger == nil {
		return
	}
	fields := append([]any{slog.String("star", star)}, args...)
	if err != nil {
		fields = append(fields, slog.String("error", err.Error()))
	}
	r.logger.Debug(msg, fields...)
}
