package cert

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
)

// VerifyTLSConfig checks that the certificate files exist, the key pair
// loads, the certificate is within its validity window and chains to the
// given CA.
func VerifyTLSConfig(certFile, keyFile, caCertFile string) error {
	if _, err := os.Stat(certFile); err != nil {
		return errors.Wrapf(err, "certificate file not found: %s", certFile)
	}
	if _, err := os.Stat(keyFile); err != nil {
		return errors.Wrapf(err, "key file not found: %s", keyFile)
	}
	if _, err := os.Stat(caCertFile); err != nil {
		return errors.Wrapf(err, "CA certificate file not found: %s", caCertFile)
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return errors.Wrap(err, "failed to load certificate key pair")
	}

	if len(cert.Certificate) == 0 {
		return errors.New("no certificate found in file")
	}
	x509Cert, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return errors.Wrap(err, "failed to parse certificate")
	}
	if time.Now().After(x509Cert.NotAfter) {
		return fmt.Errorf("certificate expired at %s", x509Cert.NotAfter)
	}
	if time.Now().Before(x509Cert.NotBefore) {
		return fmt.Errorf("certificate not valid until %s", x509Cert.NotBefore)
	}

	caBytes, err := os.ReadFile(caCertFile)
	if err != nil {
		return errors.Wrap(err, "failed to read CA certificate")
	}
	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caBytes) {
		return errors.New("failed to parse CA certificate")
	}

	opts := x509.VerifyOptions{
		Roots:     caCertPool,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}
	if _, err := x509Cert.Verify(opts); err != nil {
		return errors.Wrap(err, "certificate verification against CA failed")
	}

	return nil
}
