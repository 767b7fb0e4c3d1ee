package signer_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/smallstep/pkcs7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestionpos/facturacion-api/internal/domain"
	"github.com/gestionpos/facturacion-api/internal/infrastructure/afip/signer"
)

// generateTestCredentials genera un certificado autofirmado y su llave RSA en PEM.
func generateTestCredentials(t *testing.T) (certPEM, keyPEM []byte) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test-emisor", Organization: []string{"Test SA"}},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tpl, tpl, &key.PublicKey, key)
	require.NoError(t, err)

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return certPEM, keyPEM
}

// TestSign_EnvolventeVerificable la envolvente CMS producida debe poder
// parsearse, verificar su firma y llevar el contenido y el certificado embebidos.
func TestSign_EnvolventeVerificable(t *testing.T) {
	certPEM, keyPEM := generateTestCredentials(t)
	s, err := signer.NewFromPEM(certPEM, keyPEM, "")
	require.NoError(t, err)

	payload := []byte(`<?xml version="1.0"?><loginTicketRequest version="1.0"></loginTicketRequest>`)
	der, err := s.Sign(payload)
	require.NoError(t, err)

	p7, err := pkcs7.Parse(der)
	require.NoError(t, err, "la salida debe ser CMS SignedData válido")
	assert.Equal(t, payload, p7.Content, "el TRA debe viajar embebido en la envolvente")
	require.Len(t, p7.Certificates, 1, "el certificado del firmante debe viajar embebido")
	assert.NoError(t, p7.Verify(), "la firma debe verificar con el certificado embebido")
}

// TestSign_Deterministico dos firmas del mismo payload verifican ambas
// (la firma RSA PKCS#1 v1.5 es determinística para la misma llave y digest).
func TestSign_LlamadasConcurrentesSeguras(t *testing.T) {
	certPEM, keyPEM := generateTestCredentials(t)
	s, err := signer.NewFromPEM(certPEM, keyPEM, "")
	require.NoError(t, err)

	done := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			_, err := s.Sign([]byte("<payload/>"))
			done <- err
		}()
	}
	for i := 0; i < 4; i++ {
		assert.NoError(t, <-done)
	}
}

func TestSign_PayloadVacio(t *testing.T) {
	certPEM, keyPEM := generateTestCredentials(t)
	s, err := signer.NewFromPEM(certPEM, keyPEM, "")
	require.NoError(t, err)

	_, err = s.Sign(nil)
	assert.ErrorIs(t, err, domain.ErrSignature)
}

func TestNewFromPEM_CertificadoIlegible(t *testing.T) {
	_, keyPEM := generateTestCredentials(t)
	_, err := signer.NewFromPEM([]byte("no es un PEM"), keyPEM, "")
	assert.ErrorIs(t, err, domain.ErrCredential)
}

func TestNewFromPEM_LlaveIlegible(t *testing.T) {
	certPEM, _ := generateTestCredentials(t)
	_, err := signer.NewFromPEM(certPEM, []byte("tampoco"), "")
	assert.ErrorIs(t, err, domain.ErrCredential)
}

// TestNewFromPEM_LlaveAjena una llave que no corresponde al certificado debe
// rechazarse en la construcción, no al firmar.
func TestNewFromPEM_LlaveAjena(t *testing.T) {
	certPEM, _ := generateTestCredentials(t)
	_, otraLlave := generateTestCredentials(t)

	_, err := signer.NewFromPEM(certPEM, otraLlave, "")
	assert.ErrorIs(t, err, domain.ErrCredential)
}
