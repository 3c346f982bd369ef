package mtls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Config holds mutual-TLS settings for internal service-to-service traffic
type Config struct {
	Enabled  bool
	CertFile string
	KeyFile  string
	CAFile   string
}

// LoadFromEnv reads mTLS settings from the environment. mTLS is opt-in via
// MTLS_ENABLED=true.
func LoadFromEnv() *Config {
	return &Config{
		Enabled:  os.Getenv("MTLS_ENABLED") == "true",
		CertFile: os.Getenv("MTLS_CERT_FILE"),
		KeyFile:  os.Getenv("MTLS_KEY_FILE"),
		CAFile:   os.Getenv("MTLS_CA_FILE"),
	}
}

func (c *Config) caPool() (*x509.CertPool, error) {
	caCert, err := os.ReadFile(c.CAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}
	return pool, nil
}

// ServerTLSConfig builds a TLS config requiring client certificates
func (c *Config) ServerTLSConfig() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load server key pair: %w", err)
	}

	pool, err := c.caPool()
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientCAs:    pool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// ClientTLSConfig builds a TLS config presenting this service's certificate
func (c *Config) ClientTLSConfig() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client key pair: %w", err)
	}

	pool, err := c.caPool()
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}
