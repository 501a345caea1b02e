package download

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rebeliceyang/lazyca/internal/api"
	"github.com/rebeliceyang/lazyca/internal/models"
	"github.com/rs/zerolog"
)

// Format is a certificate download format
type Format string

const (
	PKIX    Format = "pkix"
	PEM     Format = "pem"
	PEMPart Format = "pemPart"
	PEMFull Format = "pemFull"
)

// Formats lists the certificate formats in menu order
var Formats = []Format{PKIX, PEM, PEMPart, PEMFull}

type formatSpec struct {
	path      string
	extension string
	mimeType  string
}

var formatSpecs = map[Format]formatSpec{
	PKIX:    {path: "certPKIX", extension: ".crt", mimeType: "application/pkix-cert"},
	PEM:     {path: "certPEM", extension: ".pem", mimeType: "application/pem-certificate"},
	PEMPart: {path: "certPEMPart", extension: ".part.pem", mimeType: "application/x-pem-certificate-chain"},
	PEMFull: {path: "certPEMFull", extension: ".full.pem", mimeType: "application/pem-certificate-chain"},
}

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	f := Format(name)
	if _, ok := formatSpecs[f]; !ok {
		return "", fmt.Errorf("unknown download format %q", name)
	}
	return f, nil
}

// KeystoreType is a keystore container
type KeystoreType string

const (
	P12 KeystoreType = "p12"
	JKS KeystoreType = "jks"
)

var keystoreMimeTypes = map[KeystoreType]string{
	P12: "application/x-pkcs12",
	JKS: "application/x-java-keystore",
}

// Keystore defaults used when neither options nor backend config set them
const (
	DefaultAlias   = "alias"
	DefaultPBEAlgo = "aes-sha256"
)

// KeystoreOptions controls a keystore download
type KeystoreOptions struct {
	Type    KeystoreType
	Alias   string
	PBEAlgo string
	KeyEx   bool
}

// CSVColumns are the list columns requested for CSV export
var CSVColumns = []string{
	"id", "subject", "issuer", "type", "keyLength", "serial", "validFrom", "validTo",
	"hashAlgorithm", "paddingAlgorithm", "revoked", "revokedSince", "revocationReason",
}

// Request is a resolved download: where to fetch it and how to name it
type Request struct {
	URL      string
	Filename string
	Headers  map[string]string
}

// Getter issues GET requests against the backend
type Getter interface {
	Get(ctx context.Context, endpoint string, headers map[string]string) (*api.Response, error)
}

// Downloader stores backend blobs in a directory
type Downloader struct {
	getter Getter
	dir    string
	logger zerolog.Logger
}

// New creates a downloader writing into dir
func New(getter Getter, dir string, logger zerolog.Logger) *Downloader {
	return &Downloader{getter: getter, dir: dir, logger: logger.With().Str("component", "download").Logger()}
}

// CertificateRequest builds the download of a certificate in a format
func CertificateRequest(cert models.CertificateView, format Format) (Request, error) {
	spec, ok := formatSpecs[format]
	if !ok {
		return Request{}, fmt.Errorf("unknown download format %q", format)
	}
	if cert.ID == 0 {
		return Request{}, api.ErrMissingID
	}
	filename := baseName(cert) + spec.extension
	return Request{
		URL:      "/publicapi/" + spec.path + "/" + strconv.FormatInt(cert.ID, 10) + "/" + url.PathEscape(filename),
		Filename: filename,
		Headers:  map[string]string{"Accept": spec.mimeType},
	}, nil
}

// KeystoreRequest builds the download of a keystore holding the certificate
// and its server-generated key
func KeystoreRequest(cert models.CertificateView, opts KeystoreOptions, uiConfig *models.UIConfig) (Request, error) {
	mimeType, ok := keystoreMimeTypes[opts.Type]
	if !ok {
		return Request{}, fmt.Errorf("unknown keystore type %q", opts.Type)
	}
	if cert.ID == 0 {
		return Request{}, api.ErrMissingID
	}

	alias := opts.Alias
	if alias == "" {
		alias = DefaultAlias
	}
	pbe := opts.PBEAlgo
	if pbe == "" {
		pbe = uiConfig.DefaultPBEAlgo(DefaultPBEAlgo)
	}

	filename := baseName(cert) + "." + string(opts.Type)
	return Request{
		URL: "/publicapi/keystore/" + strconv.FormatInt(cert.ID, 10) + "/" +
			url.PathEscape(filename) + "/" + url.PathEscape(alias),
		Filename: filename,
		Headers: map[string]string{
			"Accept":    mimeType,
			"X_pbeAlgo": pbe,
			"X_keyEx":   strconv.FormatBool(opts.KeyEx),
		},
	}, nil
}

func baseName(cert models.CertificateView) string {
	if cert.DownloadFilename != "" {
		return cert.DownloadFilename
	}
	return "certificate-" + strconv.FormatInt(cert.ID, 10)
}

// Fetch downloads the request and stores the body under its filename.
// It returns the path written.
func (d *Downloader) Fetch(ctx context.Context, req Request) (string, error) {
	resp, err := d.getter.Get(ctx, req.URL, req.Headers)
	if err != nil {
		return "", err
	}
	return d.Save(req.Filename, resp.Body)
}

// Save writes data to a temporary file in the download directory and renames
// it to its final name once complete
func (d *Downloader) Save(filename string, data []byte) (string, error) {
	name := filepath.Base(filepath.Clean(filename))
	if name == "." || name == string(filepath.Separator) || strings.HasPrefix(name, "..") {
		return "", fmt.Errorf("invalid download filename %q", filename)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	tmp, err := os.CreateTemp(d.dir, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}

	target := filepath.Join(d.dir, name)
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to store %s: %w", name, err)
	}

	d.logger.Info().Str("file", target).Int("bytes", len(data)).Msg("download stored")
	return target, nil
}
