package tlsroots

import (
	"crypto/tls"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func serverPEM(t *testing.T, srv *httptest.Server) []byte {
	t.Helper()
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
}

func TestNewPool(t *testing.T) {
	if NewPool().Pool() == nil {
		t.Fatal("Pool() returned nil")
	}
	if NewEmptyPool().Added() != 0 {
		t.Error("empty pool should report zero added certs")
	}
}

func TestAddCertPEM_NoCerts(t *testing.T) {
	pool := NewEmptyPool()
	if err := pool.AddCertPEM(nil); !errors.Is(err, ErrNoCertsFound) {
		t.Errorf("AddCertPEM() error = %v, want %v", err, ErrNoCertsFound)
	}

	key := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte("x")})
	if err := pool.AddCertPEM(key); !errors.Is(err, ErrNoCertsFound) {
		t.Errorf("AddCertPEM(key only) error = %v, want %v", err, ErrNoCertsFound)
	}
}

func TestAddCertPEM_Corrupt(t *testing.T) {
	bad := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("not der")})
	if err := NewEmptyPool().AddCertPEM(bad); err == nil {
		t.Error("AddCertPEM() should fail for corrupt DER")
	}
}

func TestAddCertFile_Missing(t *testing.T) {
	if err := NewEmptyPool().AddCertFile("/nonexistent/ca.pem"); err == nil {
		t.Error("AddCertFile() should fail for a missing file")
	}
}

func TestClientConfig_TrustsBundle(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(caFile, serverPEM(t, srv), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := ClientConfig(caFile)
	if err != nil {
		t.Fatalf("ClientConfig() error = %v", err)
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x", cfg.MinVersion)
	}

	client := &http.Client{Transport: &http.Transport{TLSClientConfig: cfg}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET with bundle error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}

	// Without the bundle the self-signed server is rejected.
	empty := &http.Client{Transport: &http.Transport{TLSClientConfig: NewEmptyPool().TLSConfig()}}
	if resp, err := empty.Get(srv.URL); err == nil {
		resp.Body.Close()
		t.Error("GET without bundle should fail verification")
	}
}

func TestClientConfig_Empty(t *testing.T) {
	cfg, err := ClientConfig("")
	if err != nil || cfg != nil {
		t.Errorf("ClientConfig(\"\") = %v, %v; want nil, nil", cfg, err)
	}
}
