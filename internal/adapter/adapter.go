package adapter

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

var ErrInvalidCA = errors.New("failed to parse CA certificate")

// A TLSFiles holds the filepaths of the broker TLS material.
type TLSFiles struct {
	CA   string
	Cert string
	Key  string
}

// Empty reports whether no TLS material is configured.
func (f TLSFiles) Empty() bool {
	return f.CA == "" && f.Cert == "" && f.Key == ""
}

// MakeTLSConfig returns [*tls.Config] for mutual TLS with the brokers.
//
// Nil config is returned when no files are set.
func MakeTLSConfig(files TLSFiles) (*tls.Config, error) {
	const op = "adapter.MakeTLSConfig"

	if files.Empty() {
		return nil, nil
	}

	caCert, err := os.ReadFile(files.CA)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read CA certificate file: %w", op, err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCA)
	}

	clientCert, err := tls.LoadX509KeyPair(files.Cert, files.Key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &tls.Config{
		RootCAs:      caCertPool,
		Certificates: []tls.Certificate{clientCert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
