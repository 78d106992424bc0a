package httputil

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// Nonce authorises the inline style and script blocks of one response.
type Nonce string

// NewNonce returns 16 random bytes, base64url encoded without padding.
func NewNonce() (Nonce, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate CSP nonce: %w", err)
	}
	return Nonce(base64.RawURLEncoding.EncodeToString(b)), nil
}

// Source is the nonce as a CSP source expression.
func (n Nonce) Source() string {
	return "'nonce-" + string(n) + "'"
}

type nonceKey struct{}

func WithNonce(ctx context.Context, n Nonce) context.Context {
	return context.WithValue(ctx, nonceKey{}, n)
}

// NonceOf returns the nonce the security middleware attached, or "" outside of it.
func NonceOf(ctx context.Context) string {
	n, _ := ctx.Value(nonceKey{}).(Nonce)
	return string(n)
}

// Policy is an ordered Content-Security-Policy. Directives keep the order in
// which they were first added; adding a directive again appends sources to it.
type Policy struct {
	names   []string
	sources map[string][]string
}

func (p *Policy) Add(directive string, sources ...string) *Policy {
	if p.sources == nil {
		p.sources = make(map[string][]string)
	}
	if _, ok := p.sources[directive]; !ok {
		p.names = append(p.names, directive)
	}
	for _, s := range sources {
		if s != "" {
			p.sources[directive] = append(p.sources[directive], s)
		}
	}
	return p
}

func (p *Policy) String() string {
	var b strings.Builder
	for i, name := range p.names {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(name)
		for _, s := range p.sources[name] {
			b.WriteByte(' ')
			b.WriteString(s)
		}
		b.WriteByte(';')
	}
	return b.String()
}
