package download

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/rebeliceyang/lazyca/internal/api"
	"github.com/rebeliceyang/lazyca/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGetter struct {
	url     string
	headers map[string]string
	body    []byte
	err     error
}

func (f *fakeGetter) Get(_ context.Context, endpoint string, headers map[string]string) (*api.Response, error) {
	f.url = endpoint
	f.headers = headers
	if f.err != nil {
		return nil, f.err
	}
	return &api.Response{StatusCode: http.StatusOK, Body: f.body}, nil
}

var cert = models.CertificateView{ID: 17, DownloadFilename: "host_example_org"}

func TestCertificateRequest(t *testing.T) {
	cases := []struct {
		format   Format
		url      string
		filename string
		accept   string
	}{
		{PKIX, "/publicapi/certPKIX/17/host_example_org.crt", "host_example_org.crt", "application/pkix-cert"},
		{PEM, "/publicapi/certPEM/17/host_example_org.pem", "host_example_org.pem", "application/pem-certificate"},
		{PEMPart, "/publicapi/certPEMPart/17/host_example_org.part.pem", "host_example_org.part.pem", "application/x-pem-certificate-chain"},
		{PEMFull, "/publicapi/certPEMFull/17/host_example_org.full.pem", "host_example_org.full.pem", "application/pem-certificate-chain"},
	}

	for _, tc := range cases {
		t.Run(string(tc.format), func(t *testing.T) {
			req, err := CertificateRequest(cert, tc.format)
			require.NoError(t, err)
			assert.Equal(t, tc.url, req.URL)
			assert.Equal(t, tc.filename, req.Filename)
			assert.Equal(t, tc.accept, req.Headers["Accept"])
		})
	}

	_, err := CertificateRequest(cert, "der")
	assert.Error(t, err)
}

func TestKeystoreRequest(t *testing.T) {
	uiConfig := &models.UIConfig{CryptoConfigView: &models.CryptoConfigView{DefaultPBEAlgo: "pbe-sha1-3des"}}

	req, err := KeystoreRequest(cert, KeystoreOptions{Type: P12, Alias: "my key", KeyEx: true}, uiConfig)
	require.NoError(t, err)
	assert.Equal(t, "/publicapi/keystore/17/host_example_org.p12/my%20key", req.URL)
	assert.Equal(t, "application/x-pkcs12", req.Headers["Accept"])
	assert.Equal(t, "pbe-sha1-3des", req.Headers["X_pbeAlgo"])
	assert.Equal(t, "true", req.Headers["X_keyEx"])

	req, err = KeystoreRequest(cert, KeystoreOptions{Type: JKS}, nil)
	require.NoError(t, err)
	assert.Equal(t, "/publicapi/keystore/17/host_example_org.jks/alias", req.URL)
	assert.Equal(t, "application/x-java-keystore", req.Headers["Accept"])
	assert.Equal(t, DefaultPBEAlgo, req.Headers["X_pbeAlgo"])
	assert.Equal(t, "false", req.Headers["X_keyEx"])
}

func TestFetch_WritesFile(t *testing.T) {
	dir := t.TempDir()
	g := &fakeGetter{body: []byte("-----BEGIN CERTIFICATE-----\n")}
	d := New(g, dir, zerolog.Nop())

	req, err := CertificateRequest(cert, PEM)
	require.NoError(t, err)

	path, err := d.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "host_example_org.pem"), path)
	assert.Equal(t, "application/pem-certificate", g.headers["Accept"])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "-----BEGIN CERTIFICATE-----\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary file left behind")
}

func TestFetch_ErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	d := New(&fakeGetter{err: errors.New("not found")}, dir, zerolog.Nop())

	_, err := d.Fetch(context.Background(), Request{URL: "/publicapi/certPEM/1/x.pem", Filename: "x.pem"})
	assert.Error(t, err)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestSave_ConfinedToDir(t *testing.T) {
	d := New(&fakeGetter{}, t.TempDir(), zerolog.Nop())
	path, err := d.Save("../../etc/passwd", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "passwd", filepath.Base(path))

	_, err = d.Save("..", []byte("x"))
	assert.Error(t, err)
}
