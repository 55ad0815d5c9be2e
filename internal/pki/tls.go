// Package pki fornece a configuração TLS com mTLS (Mutual TLS) usada
// por robotd e pelos dois clientes que discam contra ele (robotsim,
// robotping). Todos os três binários carregam o mesmo par
// (certificado próprio + CA pool do outro lado); o que muda entre eles
// é só qual papel cada ponta assume no handshake.
package pki

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Role identifica qual lado do handshake mTLS um binário assume.
type Role int

const (
	// ServerRole é o papel de robotd: exige e verifica o certificado do
	// client contra a CA pool.
	ServerRole Role = iota
	// ClientRole é o papel de robotsim/robotping: apresenta seu próprio
	// certificado e verifica o certificado do server contra a CA pool.
	ClientRole
)

// NewMutualTLSConfig carrega certPath/keyPath como o certificado
// apresentado por este binário e caCertPath como a CA usada para
// verificar a outra ponta, montando um *tls.Config TLS 1.3 com mTLS
// obrigatório nos dois sentidos. O papel (role) decide se a CA pool
// resultante vira ClientCAs (robotd, verificando quem disca) ou RootCAs
// (robotsim/robotping, verificando o robotd discado).
func NewMutualTLSConfig(role Role, caCertPath, certPath, keyPath string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("loading certificate: %w", err)
	}

	caPool, err := loadCACertPool(caCertPath)
	if err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		MinVersion:   tls.VersionTLS13,
		Certificates: []tls.Certificate{cert},
	}

	switch role {
	case ServerRole:
		cfg.ClientCAs = caPool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	case ClientRole:
		cfg.RootCAs = caPool
	default:
		return nil, fmt.Errorf("pki: unknown role %d", role)
	}

	return cfg, nil
}

func loadCACertPool(caCertPath string) (*x509.CertPool, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("reading CA certificate: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate from %s", caCertPath)
	}

	return pool, nil
}
