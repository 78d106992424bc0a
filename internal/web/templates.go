package web

import (
	"html/template"
	"time"

	"github.com/maymar/testimonials/internal/announce"
	"github.com/maymar/testimonials/internal/listing"
	"github.com/maymar/testimonials/internal/submission"
)

const (
	siteTitle  = "Maymar Charitable Trust - Video Testimonials"
	adminTitle = "MCT Testimonials Admin"
)

type liveRegion struct {
	Polite    string
	Assertive string
}

func liveFrom(msg announce.Message, ok bool) liveRegion {
	if !ok {
		return liveRegion{}
	}
	if msg.Politeness == announce.Assertive {
		return liveRegion{Assertive: msg.Text}
	}
	return liveRegion{Polite: msg.Text}
}

type uploaderView struct {
	Phase      submission.Phase
	Notice     string
	FileName   string
	SizeMB     string
	PreviewURL string
	Progress   string
	Reason     string
	Submitting bool
}

type landingPage struct {
	Nonce      string
	Title      string
	ClearAfter int64
	Live       liveRegion
	Uploader   *uploaderView
	Year       int
}

// adminPage renders one listing.View. The page is streamed twice: first with
// Loading, then with the outcome of the store query.
type adminPage struct {
	Nonce   string
	Title   string
	Loading bool
	Failed  bool
	Message string
	Loaded  listing.Loaded
}

func newAdminPage(nonce string, v listing.View) adminPage {
	p := adminPage{Nonce: nonce, Title: adminTitle}
	switch v := v.(type) {
	case listing.Loading:
		p.Loading = true
	case listing.Failed:
		p.Failed = true
		p.Message = v.Message
	case listing.Loaded:
		p.Loaded = v
	}
	return p
}

func clearAfterMillis() int64 {
	return announce.ClearAfter.Milliseconds()
}

func currentYear() int {
	return time.Now().Year()
}

var pageTemplates = template.Must(template.New("pages").Parse(`
{{define "styles"}}
    <style nonce="{{.Nonce}}">
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            background: #fdfbf7;
            color: #1f2937;
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            line-height: 1.5;
        }
        h1, h2, h3 { font-family: Georgia, "Times New Roman", serif; }
        a { color: #7c2d12; }
        .sr-only {
            position: absolute; width: 1px; height: 1px; padding: 0; margin: -1px;
            overflow: hidden; clip: rect(0, 0, 0, 0); white-space: nowrap; border: 0;
        }
        .skip-link { position: absolute; left: -999px; top: 0; background: #7c2d12; color: #fff; padding: 0.5rem 1rem; }
        .skip-link:focus { left: 1rem; z-index: 100; }
        .container { max-width: 1080px; margin: 0 auto; padding: 0 1rem; }
        .contact-bar { background: #7c2d12; color: #fff; font-size: 0.875rem; padding: 0.5rem 0; }
        .contact-bar a { color: #fff; text-decoration: none; margin-right: 1.5rem; }
        .brand { display: flex; align-items: center; gap: 0.75rem; padding: 1rem 0; }
        .logo { width: 3.5rem; height: 3.5rem; border-radius: 50%; background: #7c2d12; color: #fff; display: flex; align-items: center; justify-content: center; font-weight: 700; }
        nav ul { list-style: none; display: flex; gap: 1.5rem; }
        .hero { padding: 4rem 0; text-align: center; }
        .hero h1 { font-size: 2.5rem; margin: 1rem 0; }
        .stats { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 1rem; margin: 2rem 0; background: #fff; border-radius: 8px; box-shadow: 0 1px 4px rgba(0,0,0,0.1); }
        .stats div { padding: 1.5rem; }
        .stats strong { display: block; font-size: 1.75rem; color: #7c2d12; }
        .button { display: inline-block; background: #7c2d12; color: #fff; border: 0; border-radius: 999px; padding: 0.75rem 2rem; font-size: 1rem; cursor: pointer; text-decoration: none; }
        .button.outline { background: #fff; color: #7c2d12; border: 1px solid #7c2d12; }
        .button[disabled] { opacity: 0.5; cursor: not-allowed; }
        .steps { display: grid; grid-template-columns: repeat(auto-fit, minmax(260px, 1fr)); gap: 2rem; padding: 3rem 0; }
        .step { background: #fff; border-radius: 8px; padding: 2rem; box-shadow: 0 1px 4px rgba(0,0,0,0.1); }
        .step .number { font-size: 2rem; color: #7c2d12; opacity: 0.2; font-weight: 700; }
        footer { background: #7c2d12; color: #fff; margin-top: 4rem; padding: 3rem 0 1.5rem; }
        footer a { color: #fff; }
        footer .columns { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 2rem; }
        footer .legal { border-top: 1px solid rgba(255,255,255,0.2); margin-top: 2rem; padding-top: 1rem; font-size: 0.75rem; display: flex; justify-content: space-between; flex-wrap: wrap; gap: 1rem; }
        .backdrop { position: fixed; inset: 0; background: rgba(0,0,0,0.5); display: flex; align-items: center; justify-content: center; padding: 1rem; }
        .dialog { background: #fff; border-radius: 8px; max-width: 640px; width: 100%; max-height: 90vh; overflow-y: auto; }
        .dialog header { display: flex; justify-content: space-between; align-items: center; padding: 1.25rem 1.5rem; border-bottom: 1px solid #e5e7eb; }
        .dialog .body { padding: 1.5rem; }
        .dialog video { width: 100%; border-radius: 8px; background: #000; margin: 1rem 0; }
        .notice { background: #fef2f2; color: #991b1b; border: 1px solid #fecaca; border-radius: 6px; padding: 0.75rem 1rem; margin: 1rem 0; }
        .progress { background: #eff6ff; color: #1e40af; border-radius: 6px; padding: 0.75rem 1rem; margin: 1rem 0; }
        .actions { display: flex; gap: 1rem; flex-wrap: wrap; margin-top: 1rem; }
        .tips { background: #fffbeb; border-radius: 6px; padding: 1rem; margin: 1.5rem 0; font-size: 0.875rem; }
        .tips ul { list-style: none; }
        .privacy { font-size: 0.75rem; color: #6b7280; margin-top: 1rem; }
        .js .no-js { display: none; }
        .admin-grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(300px, 1fr)); gap: 1.5rem; padding: 2rem 0; }
        .card { background: #fff; border-radius: 8px; box-shadow: 0 1px 4px rgba(0,0,0,0.1); overflow: hidden; }
        .card video { width: 100%; background: #000; }
        .card .meta { padding: 1rem; font-size: 0.875rem; color: #4b5563; }
        .card .links { display: flex; gap: 1rem; padding: 0 1rem 1rem; }
        .panel { text-align: center; padding: 4rem 1rem; }
        .error { color: #991b1b; }
    </style>
{{end}}

{{define "live"}}
    <div id="live-polite" class="sr-only" role="status" aria-live="polite" aria-atomic="true">{{.Polite}}</div>
    <div id="live-assertive" class="sr-only" role="alert" aria-live="assertive" aria-atomic="true">{{.Assertive}}</div>
{{end}}

{{define "header"}}
    <header>
        <div class="contact-bar">
            <div class="container">
                <a href="tel:+918025596947" aria-label="Call Maymar Charitable Trust"><span class="sr-only">Phone:</span> +91 80 25596947</a>
                <a href="mailto:maymarblr@gmail.com" aria-label="Email Maymar Charitable Trust"><span class="sr-only">Email:</span> maymarblr@gmail.com</a>
            </div>
        </div>
        <div class="container brand">
            <div class="logo" aria-label="Maymar Charitable Trust Logo">MCT</div>
            <div>
                <strong>MAYMAR</strong><br><small>CHARITABLE TRUST</small>
            </div>
            <nav aria-label="Main">
                <ul>
                    <li><a href="/#hero">Home</a></li>
                    <li><a href="/#how-it-works">How It Works</a></li>
                    <li><a href="https://maymar.org.in" target="_blank" rel="noopener noreferrer">Main Site</a></li>
                </ul>
            </nav>
        </div>
    </header>
{{end}}

{{define "footer"}}
    <footer>
        <div class="container">
            <div class="columns">
                <div>
                    <h3>Maymar Charitable Trust</h3>
                    <p>Building Lives With Compassion</p>
                    <p><small>33 years of dedicated service to education</small></p>
                </div>
                <div>
                    <h4>Contact Us</h4>
                    <p><a href="tel:+918025596947" aria-label="Call Maymar Charitable Trust">+91 80 25596947</a></p>
                    <p><a href="mailto:maymarblr@gmail.com" aria-label="Email Maymar Charitable Trust">maymarblr@gmail.com</a></p>
                </div>
                <div>
                    <h4>Follow Us</h4>
                    <p>
                        <a href="https://www.facebook.com/maymarcharitabletrust" aria-label="Follow on Facebook">Facebook</a>
                        <a href="https://www.instagram.com/maymarcharitabletrust/" aria-label="Follow on Instagram">Instagram</a>
                        <a href="https://www.linkedin.com/company/maymar-charitable-trust/" aria-label="Follow on LinkedIn">LinkedIn</a>
                    </p>
                </div>
            </div>
            <div class="legal">
                <p>&copy; {{.Year}} Maymar Charitable Trust. All rights reserved.</p>
                <p>Privacy Notice: Your testimonial will be reviewed by MCT administration</p>
            </div>
        </div>
    </footer>
{{end}}

{{define "uploader"}}
    <div class="backdrop">
        <div class="dialog" id="uploader" role="dialog" aria-modal="true" aria-labelledby="uploader-title" data-phase="{{.Phase}}"{{if .Submitting}} data-submitting="true"{{end}}>
            <header>
                <h2 id="uploader-title">Share Your Testimonial</h2>
                {{if and (ne .Phase "submitted") (not .Submitting)}}
                <form method="post" action="/uploader/close">
                    <button type="submit" class="button outline" aria-label="Close uploader">&#x2715;</button>
                </form>
                {{end}}
            </header>
            <div class="body">
            {{if eq .Phase "submitted"}}
                <h3>Thank You!</h3>
                <p>Your testimonial has been submitted successfully and will be reviewed by our team.</p>
                <form method="post" action="/uploader/close" class="actions">
                    <button type="submit" class="button">Close</button>
                </form>
            {{else if eq .Phase "selected"}}
                <h3>Review Your Video</h3>
                <p><strong>File:</strong> {{.FileName}}</p>
                <p><strong>Size:</strong> {{.SizeMB}} MB</p>
                <video src="{{.PreviewURL}}" controls aria-label="Your selected testimonial video"></video>
                {{if .Progress}}<div class="progress" role="status">{{.Progress}}</div>{{end}}
                {{if .Reason}}<div class="notice" role="alert">{{.Reason}}</div>{{end}}
                <div class="actions">
                    <form method="post" action="/uploader/discard">
                        <button type="submit" class="button outline"{{if .Submitting}} disabled{{end}}>Choose Different Video</button>
                    </form>
                    <form method="post" action="/uploader/submit">
                        <button type="submit" class="button"{{if .Submitting}} disabled{{end}}>{{if .Submitting}}Uploading...{{else}}Submit Testimonial{{end}}</button>
                    </form>
                </div>
                <p class="privacy"><strong>Privacy Notice:</strong> Your testimonial will be reviewed by MCT administration before publication.</p>
            {{else}}
                <h3>Upload Your Video Testimonial</h3>
                <p>Record your testimonial on your phone or camera, then upload it here</p>
                <form method="post" action="/uploader/select" enctype="multipart/form-data" id="select-form" class="actions">
                    <label for="video-upload" class="sr-only">Upload video file</label>
                    <input type="file" id="video-upload" name="video" accept="video/*" aria-label="Upload video file" required>
                    <button type="submit" class="button no-js">Choose Video File</button>
                </form>
                <p><small>Supported formats: MP4, MOV, AVI, WebM &bull; Max size: 100MB</small></p>
                {{if .Notice}}<div class="notice" role="alert">{{.Notice}}</div>{{end}}
                <div class="tips">
                    <p><strong>Recording Tips:</strong></p>
                    <ul>
                        <li>Keep your video between 2-3 minutes</li>
                        <li>Record in landscape mode for best quality</li>
                        <li>Speak clearly and naturally about your journey with MCT</li>
                        <li>Find a quiet location with good lighting</li>
                        <li>You can use your phone's camera or any video camera</li>
                    </ul>
                </div>
                <form method="post" action="/uploader/close">
                    <button type="submit" class="button outline">Cancel</button>
                </form>
            {{end}}
            </div>
        </div>
    </div>
{{end}}

{{define "landing"}}<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <meta name="description" content="Share your journey with Maymar Charitable Trust. Record a video testimonial about how our Educational Assistance Program has impacted your life.">
    <meta property="og:title" content="{{.Title}}">
    <meta property="og:description" content="Share your story and inspire future scholars">
    <meta property="og:type" content="website">
    {{if and .Uploader .Uploader.Submitting}}<meta http-equiv="refresh" content="2">{{end}}
    {{template "styles" .}}
</head>
<body data-clear-after="{{.ClearAfter}}">
    <a class="skip-link" href="#main-content">Skip to main content</a>
    {{template "live" .Live}}
    {{template "header" .}}
    <main id="main-content">
        <section id="hero" class="hero">
            <div class="container">
                <p role="status">Welcome to Maymar Charitable Trust</p>
                <h1>Share Your Journey With Maymar Charitable Trust</h1>
                <p>Your story inspires future scholars. Record a short video testimonial about how our Educational Assistance Program has impacted your life.</p>
                <div class="stats">
                    <div><strong>33 Years</strong>Of Service</div>
                    <div><strong>13,000+</strong>Scholarships Awarded</div>
                    <div><strong>3,000+</strong>Graduates Supported</div>
                </div>
                <form method="post" action="/uploader/open">
                    <button type="submit" class="button" aria-label="Start recording your testimonial">Record Your Testimonial &rarr;</button>
                </form>
                <p><small>&check; Quick &amp; Easy &bull; &check; Secure Recording &bull; &check; Your Story Matters</small></p>
            </div>
        </section>
        <section id="how-it-works">
            <div class="container">
                <h2>How It Works</h2>
                <p>Recording your testimonial is simple and takes just a few minutes. Here's how it works.</p>
                <div class="steps">
                    <article class="step">
                        <div class="number">01</div>
                        <h3>Click to Start</h3>
                        <p>Simple one-click recording process. No complicated setup required. Just press record and share your story.</p>
                    </article>
                    <article class="step">
                        <div class="number">02</div>
                        <h3>Share Your Story</h3>
                        <p>Record a 2-3 minute video about your journey with our Educational Assistance Program.</p>
                    </article>
                    <article class="step">
                        <div class="number">03</div>
                        <h3>Inspire Others</h3>
                        <p>Your testimonial helps and inspires future students to pursue their educational dreams.</p>
                    </article>
                </div>
                <p>Ready to share your impact story?</p>
                <p><strong>Every testimonial makes a difference</strong></p>
            </div>
        </section>
    </main>
    {{template "footer" .}}
    {{with .Uploader}}{{template "uploader" .}}{{end}}
    <script src="/static/app.js" nonce="{{.Nonce}}" defer></script>
</body>
</html>
{{end}}

{{define "admin-start"}}<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <meta name="robots" content="noindex">
    <title>{{.Title}}</title>
    {{template "styles" .}}
</head>
<body>
    <a class="skip-link" href="#main-content">Skip to main content</a>
    <main id="main-content" class="container">
        {{if .Loading}}
        <div id="loading" class="panel" role="status">
            <p>Loading testimonials...</p>
        </div>
        {{end}}
{{end}}

{{define "admin-result"}}
        <style nonce="{{.Nonce}}">#loading { display: none; }</style>
        {{if .Loading}}
        {{else if .Failed}}
        <div class="panel" role="alert">
            <p class="error"><strong>Error</strong></p>
            <p>{{.Message}}</p>
        </div>
        {{else}}
        <header class="panel">
            <h1>{{.Title}}</h1>
            <p>View and manage submitted testimonials</p>
        </header>
        <section aria-labelledby="total">
            <h2 id="total">Total Submissions: {{.Loaded.Total}}</h2>
            <p>All video testimonials submitted by students</p>
            {{if .Loaded.Empty}}
            <div class="panel">
                <p>No testimonials yet</p>
                <p>Submitted videos will appear here</p>
            </div>
            {{else}}
            <div class="admin-grid">
                {{range .Loaded.Items}}
                <article class="card">
                    <div class="meta"><strong>{{.Label}}</strong></div>
                    <video src="{{.VideoURL}}" controls preload="metadata"></video>
                    <div class="meta">Submitted: <time>{{.Submitted}}</time></div>
                    <div class="links">
                        <a href="{{.VideoURL}}" target="_blank" rel="noopener noreferrer">Open in New Tab</a>
                        <a href="{{.VideoURL}}" download>Download</a>
                    </div>
                </article>
                {{end}}
            </div>
            {{end}}
        </section>
        {{end}}
    </main>
</body>
</html>
{{end}}
`))
