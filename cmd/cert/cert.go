package cert

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	certutil "github.com/karlivory/SiGa/internal/util/cert"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Certificate management tools",
	}

	cmd.AddCommand(newGenCmd())
	cmd.AddCommand(newVerifyCmd())
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var certFile, keyFile, caFile string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a certificate key pair against its CA",
		Run: func(cmd *cobra.Command, args []string) {
			if err := certutil.VerifyTLSConfig(certFile, keyFile, caFile); err != nil {
				log.Fatal().Err(err).Msg("Certificate verification failed")
			}
			log.Info().Str("cert", certFile).Msg("Certificate OK")
		},
	}

	cmd.Flags().StringVar(&certFile, "cert", "certs/server.crt", "Certificate file")
	cmd.Flags().StringVar(&keyFile, "key", "certs/server.key", "Key file")
	cmd.Flags().StringVar(&caFile, "ca", "certs/ca.crt", "CA certificate file")

	return cmd
}

func newGenCmd() *cobra.Command {
	var outDir string
	var hostnames []string

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate development certificates (CA, server TLS, test signer)",
		Run: func(cmd *cobra.Command, args []string) {
			if err := generateCerts(outDir, hostnames); err != nil {
				log.Fatal().Err(err).Msg("Failed to generate certificates")
			}
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "certs", "Output directory for certificates")
	cmd.Flags().StringSliceVar(&hostnames, "host", []string{"localhost", "127.0.0.1"}, "Hostnames/IPs for the server certificate")

	return cmd
}

func generateCerts(outDir string, hostnames []string) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	log.Info().Msg("Generating CA certificate...")
	caPriv, caCert, caPEM, caPrivPEM, err := generateCA()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, "ca.crt"), caPEM, 0644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, "ca.key"), caPrivPEM, 0600); err != nil {
		return err
	}

	log.Info().Strs("hosts", hostnames).Msg("Generating server TLS certificate...")
	serverPEM, serverPrivPEM, err := generateEntityCert("siga-gateway", hostnames, caCert, caPriv, true)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, "server.crt"), serverPEM, 0644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, "server.key"), serverPrivPEM, 0600); err != nil {
		return err
	}

	// A throwaway signer certificate for exercising the remote signing flow
	// in development.
	log.Info().Msg("Generating test signer certificate...")
	signerPEM, signerPrivPEM, err := generateEntityCert("siga-test-signer", nil, caCert, caPriv, false)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, "signer.crt"), signerPEM, 0644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, "signer.key"), signerPrivPEM, 0600); err != nil {
		return err
	}

	log.Info().Str("dir", outDir).Msg("Certificates generated successfully")
	return nil
}

func generateCA() (*rsa.PrivateKey, *x509.Certificate, []byte, []byte, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 4096)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"SiGa Development CA"},
			CommonName:   "SiGa Development Root CA",
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour * 10),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: derBytes})
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	return priv, template, certPEM, privPEM, nil
}

func generateEntityCert(cn string, hosts []string, caCert *x509.Certificate, caKey *rsa.PrivateKey, isServer bool) ([]byte, []byte, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, err
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			Organization: []string{"SiGa Development"},
			CommonName:   cn,
		},
		NotBefore: time.Now(),
		NotAfter:  time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:  x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
	}

	if isServer {
		template.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}
	} else {
		template.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth}
	}

	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, template, caCert, &priv.PublicKey, caKey)
	if err != nil {
		return nil, nil, err
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: derBytes})
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	return certPEM, privPEM, nil
}
