package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/maymar/testimonials/internal/validate"
)

const (
	DefaultCloudinaryURL = "https://api.cloudinary.com"
	DefaultFolder        = "mct_uploads"

	maxErrorBodyBytes = 1024
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

type CloudinaryConfig struct {
	BaseURL      string
	CloudName    string
	UploadPreset string
	Folder       string
}

// Cloudinary uploads through Cloudinary's unsigned upload endpoint, the same
// request a browser form would make.
type Cloudinary struct {
	cfg  CloudinaryConfig
	http *http.Client
}

func NewCloudinary(cfg CloudinaryConfig) *Cloudinary {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultCloudinaryURL
	}
	if cfg.Folder == "" {
		cfg.Folder = DefaultFolder
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	// Large uploads can take minutes on slow links; only the dial and TLS
	// handshake are bounded.
	return &Cloudinary{cfg: cfg, http: &http.Client{Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSHandshakeTimeout: 10 * time.Second,
	}}}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url" validate:"required,url"`
	PublicID  string `json:"public_id"`
}

func (c *Cloudinary) endpoint() string {
	return fmt.Sprintf("%s/v1_1/%s/video/upload", c.cfg.BaseURL, c.cfg.CloudName)
}

func (c *Cloudinary) Upload(ctx context.Context, u Upload) (Asset, error) {
	if c.cfg.CloudName == "" || c.cfg.UploadPreset == "" {
		return Asset{}, ErrNotConfigured
	}

	body, contentType := c.multipartBody(u)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), body)
	if err != nil {
		return Asset{}, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return Asset{}, fmt.Errorf("upload video: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return Asset{}, fmt.Errorf("upload video: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Asset{}, fmt.Errorf("decode upload response: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return Asset{}, fmt.Errorf("invalid upload response: %w", err)
	}

	slog.Info("media: video uploaded", "url", out.SecureURL, "public_id", out.PublicID, "bytes", u.Size)
	return Asset{URL: out.SecureURL}, nil
}

// multipartBody streams the form so the video is never buffered in memory.
func (c *Cloudinary) multipartBody(u Upload) (io.Reader, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeUploadForm(mw, u, c.cfg.UploadPreset, c.cfg.Folder)
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}

func writeUploadForm(mw *multipart.Writer, u Upload, preset, folder string) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(u.Name)))
	contentType := u.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, u.Body); err != nil {
		return fmt.Errorf("write file part: %w", err)
	}
	if err := mw.WriteField("upload_preset", preset); err != nil {
		return fmt.Errorf("write upload_preset: %w", err)
	}
	if err := mw.WriteField("folder", folder); err != nil {
		return fmt.Errorf("write folder: %w", err)
	}
	return nil
}
