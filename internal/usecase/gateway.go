package usecase

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"BrandPulse/internal/domain"
	"BrandPulse/internal/ports"
)

// SearchGateway wraps the raw search transport with quota enforcement,
// domain blacklisting, and visited-URL suppression.
type SearchGateway struct {
	transport ports.SearchTransport
	quota     ports.QuotaStore
	visited   ports.VisitedURLStore
	blacklist map[string]struct{}
	now       func() time.Time
	logger    *slog.Logger
}

// NewSearchGateway wires the gating collaborators around a transport.
func NewSearchGateway(
	transport ports.SearchTransport,
	quota ports.QuotaStore,
	visited ports.VisitedURLStore,
	blacklist []string,
	logger *slog.Logger,
) *SearchGateway {
	return &SearchGateway{
		transport: transport,
		quota:     quota,
		visited:   visited,
		blacklist: domainSet(blacklist),
		now:       time.Now,
		logger:    logger,
	}
}

// RunSearches executes the term list against the transport, subject to the
// daily quota. Quota is reserved once, before any network access; the term
// list is truncated to the granted count. The per-call blacklist (the
// brand's own banned domains) is applied on top of the configured one.
// Accepted snippets keep the transport's original order per term,
// concatenated in input term order, and their URLs are recorded in the
// visited registry as the crawl goes.
func (g *SearchGateway) RunSearches(ctx context.Context, terms, blacklist []string) ([]domain.Snippet, []string, error) {
	if len(terms) == 0 {
		return nil, nil, nil
	}
	banned := domainSet(blacklist)

	granted, err := g.quota.Reserve(ctx, g.now().UTC(), len(terms))
	if err != nil {
		return nil, nil, err
	}
	if granted < len(terms) {
		g.log().Warn("search quota truncated term list",
			"requested", len(terms), "granted", granted)
	}
	if granted == 0 {
		return nil, nil, nil
	}

	executed := terms[:granted]
	var snippets []domain.Snippet
	for _, term := range executed {
		for _, raw := range g.transport.Search(ctx, term) {
			if !g.accept(ctx, raw, banned) {
				continue
			}
			snippets = append(snippets, raw)
			g.recordVisit(ctx, raw.URL)
		}
	}

	return snippets, executed, nil
}

// accept applies the rejection rules: empty url or snippet text,
// blacklisted domain, already-visited URL.
func (g *SearchGateway) accept(ctx context.Context, snip domain.Snippet, banned map[string]struct{}) bool {
	if snip.URL == "" || strings.TrimSpace(snip.Text) == "" {
		return false
	}

	host := hostOf(snip.URL)
	if _, drop := g.blacklist[host]; drop {
		g.log().Debug("rejected blacklisted domain", "url", snip.URL, "domain", host)
		return false
	}
	if _, drop := banned[host]; drop {
		g.log().Debug("rejected brand-blacklisted domain", "url", snip.URL, "domain", host)
		return false
	}

	seen, err := g.visited.IsVisited(ctx, snip.URL)
	if err != nil {
		g.log().Warn("visited lookup failed, treating as unseen", "url", snip.URL, "error", err)
		return true
	}
	if seen {
		g.log().Debug("suppressed previously visited url", "url", snip.URL)
		return false
	}
	return true
}

// recordVisit commits the URL to the registry. Store errors are logged and
// skipped: the write-back must never abort the run.
func (g *SearchGateway) recordVisit(ctx context.Context, rawURL string) {
	visit := domain.VisitedURL{
		URL:         rawURL,
		Domain:      hostOf(rawURL),
		LastVisited: g.now().UTC(),
	}
	if err := g.visited.Record(ctx, visit); err != nil {
		g.log().Warn("visited write-back failed", "url", rawURL, "error", err)
	}
}

func (g *SearchGateway) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return normalizeDomain(u.Hostname())
}

// normalizeDomain folds a configured entry or a parsed hostname to one
// comparable form so "www.Spam.example" and "spam.example" match.
func normalizeDomain(d string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
}

func domainSet(domains []string) map[string]struct{} {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		if d = normalizeDomain(d); d != "" {
			set[d] = struct{}{}
		}
	}
	return set
}
