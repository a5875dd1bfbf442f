// Carga de certificado desde .p12 (PKCS#12), Base64 o par PEM.

package signer

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// LoadFromP12Bytes carga certificado y llave privada desde el contenido de un .p12/.pfx.
// El password puede ser vacío si el archivo no está protegido.
func LoadFromP12Bytes(data []byte, password string) (tls.Certificate, error) {
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decodificar p12: %w", err)
	}
	// pkcs12.Decode devuelve un solo certificado; para DIAN basta el certificado hoja.
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// LoadFromP12 carga certificado y llave privada desde un archivo .p12/.pfx.
func LoadFromP12(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("leer p12: %w", err)
	}
	return LoadFromP12Bytes(data, password)
}

// LoadFromBase64 carga el .p12 desde su representación Base64 (variable de entorno).
func LoadFromBase64(b64, password string) (tls.Certificate, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decodificar Base64 del certificado: %w", err)
	}
	return LoadFromP12Bytes(data, password)
}

// CertDigestAndIssuerSerial devuelve el digest SHA-256 del certificado (Base64)
// y el emisor/serial para el bloque XAdES SigningCertificate.
func CertDigestAndIssuerSerial(cert *x509.Certificate) (digestB64 string, issuerName string, serialHex string) {
	h := sha256.Sum256(cert.Raw)
	digestB64 = base64.StdEncoding.EncodeToString(h[:])
	issuerName = cert.Issuer.String()
	serialHex = cert.SerialNumber.Text(16)
	return digestB64, issuerName, serialHex
}
