package adapter

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/niksmo/shopwave/internal/core/domain"
	"github.com/niksmo/shopwave/internal/core/port"
	"github.com/spf13/afero"
)

var ErrBrokerDisabled = errors.New("broker is not configured")

var (
	_ port.AvailabilityChecker = AllAvailable{}
	_ port.AvailabilityEmitter = DisabledEmitter{}
)

// A MakeTLSConfig returns client [*tls.Config] for the broker connections.
//
// All args are the filepaths on fs.
func MakeTLSConfig(fs afero.Fs, ca, cert, key string) (*tls.Config, error) {
	const op = "adapter.MakeTLSConfig"

	caCert, err := afero.ReadFile(fs, ca)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read CA certificate file: %w", op, err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("%s: %s", op, "failed to parse CA certificate")
	}

	certPEM, err := afero.ReadFile(fs, cert)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read certificate file: %w", op, err)
	}

	keyPEM, err := afero.ReadFile(fs, key)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read key file: %w", op, err)
	}

	clientCert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &tls.Config{
		RootCAs:      caCertPool,
		Certificates: []tls.Certificate{clientCert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// AllAvailable keeps every product in the catalog. Used when no
// availability stream is configured.
type AllAvailable struct{}

func (AllAvailable) IsAvailable(int64) bool { return true }

// DisabledEmitter rejects availability changes when no broker is configured.
type DisabledEmitter struct{}

func (DisabledEmitter) EmitAvailability(
	context.Context, domain.ProductAvailability,
) error {
	return fmt.Errorf("DisabledEmitter.EmitAvailability: %w", ErrBrokerDisabled)
}
