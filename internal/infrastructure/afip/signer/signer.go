// Firma CMS/PKCS#7 del pedido de ticket de acceso (TRA) para WSAA.
// La envolvente SignedData lleva el TRA, la firma RSA-SHA256 y el certificado
// del emisor, de modo que AFIP puede verificar sin distribución externa de claves.

package signer

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/smallstep/pkcs7"
	"golang.org/x/crypto/pkcs12"

	"github.com/gestionpos/facturacion-api/internal/domain"
)

// CryptoSigner envuelve un certificado X.509 y su llave privada RSA.
// Sin estado mutable después de construido; seguro para uso concurrente.
type CryptoSigner struct {
	cert *x509.Certificate
	key  *rsa.PrivateKey
}

// NewFromPEM construye el firmador desde certificado y llave en PEM.
// passphrase vacío significa llave sin cifrar.
func NewFromPEM(certPEM, keyPEM []byte, passphrase string) (*CryptoSigner, error) {
	cert, err := parseCertPEM(certPEM)
	if err != nil {
		return nil, err
	}
	key, err := parseKeyPEM(keyPEM, passphrase)
	if err != nil {
		return nil, err
	}
	if err := checkKeyPair(cert, key); err != nil {
		return nil, err
	}
	return &CryptoSigner{cert: cert, key: key}, nil
}

// NewFromP12 construye el firmador desde un bundle PKCS#12 (.p12/.pfx).
func NewFromP12(data []byte, password string) (*CryptoSigner, error) {
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("%w: decodificar p12: %v", domain.ErrCredential, err)
	}
	key, ok := priv.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: el p12 debe contener una llave RSA", domain.ErrCredential)
	}
	if err := checkKeyPair(cert, key); err != nil {
		return nil, err
	}
	return &CryptoSigner{cert: cert, key: key}, nil
}

// NewFromFiles carga las credenciales desde disco. Si keyPath está vacío se
// asume que certPath es un bundle .p12 protegido con passphrase.
func NewFromFiles(certPath, keyPath, passphrase string) (*CryptoSigner, error) {
	certData, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("%w: leer certificado: %v", domain.ErrCredential, err)
	}
	if keyPath == "" {
		return NewFromP12(certData, passphrase)
	}
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: leer llave privada: %v", domain.ErrCredential, err)
	}
	return NewFromPEM(certData, keyData, passphrase)
}

// Sign firma el payload y devuelve la envolvente CMS SignedData en DER,
// con digest SHA-256, firma RSA y el certificado del firmante embebido.
func (s *CryptoSigner) Sign(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: payload vacío", domain.ErrSignature)
	}
	sd, err := pkcs7.NewSignedData(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: crear SignedData: %v", domain.ErrSignature, err)
	}
	sd.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)
	if err := sd.AddSigner(s.cert, s.key, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, fmt.Errorf("%w: agregar firmante: %v", domain.ErrSignature, err)
	}
	der, err := sd.Finish()
	if err != nil {
		return nil, fmt.Errorf("%w: serializar CMS: %v", domain.ErrSignature, err)
	}
	return der, nil
}

// Certificate devuelve el certificado del firmador (solo lectura).
func (s *CryptoSigner) Certificate() *x509.Certificate {
	return s.cert
}

func parseCertPEM(certPEM []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("%w: el PEM no contiene un certificado", domain.ErrCredential)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: parsear certificado: %v", domain.ErrCredential, err)
	}
	return cert, nil
}

func parseKeyPEM(keyPEM []byte, passphrase string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("%w: el PEM no contiene una llave privada", domain.ErrCredential)
	}

	der := block.Bytes
	if x509.IsEncryptedPEMBlock(block) {
		if passphrase == "" {
			return nil, fmt.Errorf("%w: la llave está cifrada y no se indicó passphrase", domain.ErrCredential)
		}
		dec, err := x509.DecryptPEMBlock(block, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("%w: descifrar llave: %v", domain.ErrCredential, err)
		}
		der = dec
	}

	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: parsear llave privada: %v", domain.ErrCredential, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: la llave debe ser RSA", domain.ErrCredential)
	}
	return key, nil
}

// checkKeyPair verifica que la llave corresponda al certificado.
func checkKeyPair(cert *x509.Certificate, key *rsa.PrivateKey) error {
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("%w: el certificado no tiene clave pública RSA", domain.ErrCredential)
	}
	if pub.N.Cmp(key.N) != 0 {
		return fmt.Errorf("%w: la llave privada no corresponde al certificado", domain.ErrCredential)
	}
	return nil
}
