package metadata

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/mssola/useragent"
)

type contextKeyClient struct{}

// Client describes the caller as seen at the edge.
type Client struct {
	IP      string
	Browser string
	OS      string
	Mobile  bool
	Bot     bool
}

// Resolver decides which address a request came from. Forwarding headers
// are only believed when the connection itself comes from a trusted proxy;
// anyone else could write them.
type Resolver struct {
	trusted []netip.Prefix
}

// NewResolver parses trusted proxies given as CIDRs or bare addresses. With
// none, forwarding headers are ignored and the connection address is used.
func NewResolver(trustedProxies []string) (*Resolver, error) {
	r := &Resolver{}
	for _, raw := range trustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			prefix, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
			}
			r.trusted = append(r.trusted, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		addr = addr.Unmap()
		r.trusted = append(r.trusted, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return r, nil
}

var direct = &Resolver{}

// ClientMetadata is the middleware for a server with no proxy in front.
func ClientMetadata(next http.Handler) http.Handler {
	return direct.Middleware(next)
}

// Middleware resolves the caller's IP and parses the User-Agent once per
// request. Apply it before the access logger.
func (res *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithClient(r.Context(), res.FromRequest(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromRequest builds Client from the resolved IP and the User-Agent.
func (res *Resolver) FromRequest(r *http.Request) Client {
	c := Client{IP: res.ClientIP(r)}
	if raw := r.Header.Get("User-Agent"); raw != "" {
		ua := useragent.New(raw)
		c.Browser, _ = ua.Browser()
		c.OS = ua.OS()
		c.Mobile = ua.Mobile()
		c.Bot = ua.Bot()
	}
	return c
}

// FromRequest resolves without trusting any proxy.
func FromRequest(r *http.Request) Client {
	return direct.FromRequest(r)
}

// GetClient returns the caller metadata, if the middleware ran.
func GetClient(ctx context.Context) (Client, bool) {
	c, ok := ctx.Value(contextKeyClient{}).(Client)
	return c, ok
}

func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, contextKeyClient{}, c)
}

// ClientIP returns the connection address unless it is a trusted proxy. For
// a trusted proxy, X-Forwarded-For is walked right to left and the first
// hop that is not itself trusted wins; X-Real-IP is the fallback.
func (res *Resolver) ClientIP(r *http.Request) string {
	remote := remoteHost(r.RemoteAddr)
	if !res.isTrusted(remote) {
		return remote
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !res.isTrusted(hop) {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return remote
}

// ClientIPFromRequest returns the connection address, ignoring forwarding
// headers.
func ClientIPFromRequest(r *http.Request) string {
	return direct.ClientIP(r)
}

func (res *Resolver) isTrusted(ip string) bool {
	if len(res.trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range res.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(remoteAddr string) string {
	if remoteAddr == "" {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
