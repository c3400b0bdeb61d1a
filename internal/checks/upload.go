package checks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/printgate/printgate/internal/engine"
	"github.com/printgate/printgate/internal/types"
)

// DefaultImageKitUploadURL is the ImageKit upload endpoint.
const DefaultImageKitUploadURL = "https://upload.imagekit.io/api/v1/files/upload"

// ErrNoCredentials is returned by an uploader without credentials.
var ErrNoCredentials = errors.New("no image hosting credentials")

// Uploader publishes one image into folder and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file, folder string) (string, error)
}

// ImageKit uploads through the ImageKit REST API.
type ImageKit struct {
	PrivateKey string
	PublicKey  string
	UploadURL  string
	HTTP       *http.Client
}

// ImageKitFromEnv reads IMAGEKIT_PRIVATE_KEY and IMAGEKIT_PUBLIC_KEY.
func ImageKitFromEnv(uploadURL string) *ImageKit {
	return &ImageKit{
		PrivateKey: os.Getenv("IMAGEKIT_PRIVATE_KEY"),
		PublicKey:  os.Getenv("IMAGEKIT_PUBLIC_KEY"),
		UploadURL:  uploadURL,
	}
}

func (k *ImageKit) Upload(ctx context.Context, file, folder string) (string, error) {
	if k.PrivateKey == "" {
		return "", ErrNoCredentials
	}
	body, contentType, err := imageKitForm(file, folder)
	if err != nil {
		return "", err
	}
	u := k.UploadURL
	if u == "" {
		u = DefaultImageKitUploadURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.SetBasicAuth(k.PrivateKey, "")

	hc := k.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("imagekit upload: %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode imagekit response: %w", err)
	}
	return out.URL, nil
}

func imageKitForm(file, folder string) (io.Reader, string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"fileName", filepath.Base(file)},
		{"folder", folder},
		{"useUniqueFileName", "false"},
		{"isPrivateFile", "false"},
		{"overwriteFile", "true"},
		{"overwriteAITags", "true"},
		{"overwriteTags", "true"},
		{"overwriteCustomMetadata", "true"},
	}
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	part, err := mw.CreateFormFile("file", filepath.Base(file))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// Upload publishes every image artifact into a folder mirroring its relative
// directory. Missing credentials make every image a skipped Warning.
type Upload struct {
	Uploader Uploader
}

var uploadColumns = []types.Column{
	{Title: "URL", Key: "url"},
}

func (u *Upload) Name() string            { return "upload" }
func (u *Upload) Columns() []types.Column { return uploadColumns }

func (u *Upload) Run(ctx context.Context, a types.Artifact) (engine.Verdict, error) {
	folder := path.Dir(a.Path)
	if folder == "." {
		folder = "/"
	}
	url, err := u.Uploader.Upload(ctx, a.FullPath(), folder)
	if errors.Is(err, ErrNoCredentials) {
		logrus.WithField("artifact", a.Path).Warn("no suitable ImageKit credentials were found, skipping upload")
		return engine.Verdict{Severity: types.SevWarning}, nil
	}
	if err != nil {
		return engine.Verdict{}, err
	}
	if url == "" {
		return engine.Verdict{Severity: types.SevFailure}, nil
	}
	return engine.Verdict{Severity: types.SevSuccess, Values: map[string]string{"url": url}}, nil
}
