// Package docs serves the OpenAPI description of the JSON endpoints.
package docs

import (
	_ "embed"
	"net/http"
	"strings"

	"github.com/maymar/testimonials/internal/httputil"
)

const viewerCDN = "https://cdn.jsdelivr.net"

//go:embed openapi.yaml
var specYAML []byte

type Docs struct {
	spec []byte
	csp  string
}

// New appends a servers entry for baseURL so the reference page targets this
// deployment. An empty baseURL leaves the document unchanged.
func New(baseURL string) *Docs {
	spec := append([]byte(nil), specYAML...)
	if base := strings.TrimSuffix(baseURL, "/"); base != "" {
		spec = append(spec, []byte("servers:\n  - url: "+base+"\n")...)
	}

	var p httputil.Policy
	p.Add("default-src", "'self'").
		Add("script-src", "'self'", viewerCDN, "'unsafe-inline'").
		Add("style-src", "'self'", viewerCDN, "'unsafe-inline'").
		Add("font-src", "'self'", viewerCDN, "data:").
		Add("img-src", "'self'", "data:").
		Add("connect-src", "'self'").
		Add("frame-ancestors", "'none'")

	return &Docs{spec: spec, csp: p.String()}
}

func (d *Docs) HandleSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(d.spec)
}

// HandleDocs replaces the site-wide policy; the viewer loads from a CDN.
func (d *Docs) HandleDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Security-Policy", d.csp)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(docsHTML))
}

const docsHTML = `<!DOCTYPE html>
<html lang="en"><head>
  <title>MCT Testimonials API</title>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <meta name="robots" content="noindex">
</head><body>
  <script id="api-reference" data-url="/api/docs/openapi.yaml"></script>
  <script src="` + viewerCDN + `/npm/@scalar/api-reference"></script>
</body></html>`
