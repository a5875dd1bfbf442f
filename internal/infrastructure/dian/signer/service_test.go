package signer

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"math/big"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCertificate genera un certificado autofirmado RSA para los tests de firma.
func testCertificate(t *testing.T) tls.Certificate {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1001),
		Subject:      pkix.Name{CommonName: "ACME SAS", Organization: []string{"ACME"}},
		Issuer:       pkix.Name{CommonName: "AC Prueba"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv}
}

// testUBL XML mínimo con la estructura de extensiones que deja el builder:
// la segunda ExtensionContent vacía es el destino de la firma.
const testUBL = `<Invoice Id="document-id" xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2" xmlns:ext="urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2" xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2">
  <ext:UBLExtensions>
    <ext:UBLExtension>
      <ext:ExtensionContent></ext:ExtensionContent>
    </ext:UBLExtension>
    <ext:UBLExtension>
      <ext:ExtensionContent></ext:ExtensionContent>
    </ext:UBLExtension>
  </ext:UBLExtensions>
  <cbc:ID>SETP990000001</cbc:ID>
</Invoice>`

func TestSign_InyectaFirmaEnSegundaExtension(t *testing.T) {
	svc := NewDigitalSignatureService()
	cert := testCertificate(t)

	signed, err := svc.Sign([]byte(testUBL), cert)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(signed), "el XML firmado debe seguir siendo parseable")

	exts := doc.FindElements("//ext:UBLExtension")
	require.Len(t, exts, 2)

	assert.Nil(t, exts[0].FindElement(".//ds:Signature"),
		"la primera extensión queda reservada para la DIAN")
	sig := exts[1].FindElement(".//ds:Signature")
	require.NotNil(t, sig, "la firma debe inyectarse en la segunda extensión")

	assert.NotNil(t, sig.FindElement(".//ds:SignatureValue"))
	assert.NotNil(t, sig.FindElement(".//ds:X509Certificate"))
	assert.NotNil(t, sig.FindElement(".//xades:SigningTime"))
	assert.NotNil(t, sig.FindElement(".//xades:SignaturePolicyIdentifier"))
}

func TestSign_DigestDelDocumento(t *testing.T) {
	svc := NewDigitalSignatureService()
	cert := testCertificate(t)

	signed, err := svc.Sign([]byte(testUBL), cert)
	require.NoError(t, err)

	expected := sha512.Sum384([]byte(testUBL))
	expectedB64 := base64.StdEncoding.EncodeToString(expected[:])

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(signed))
	digest := doc.FindElement("//ds:Reference/ds:DigestValue")
	require.NotNil(t, digest)
	assert.Equal(t, expectedB64, digest.Text(),
		"el DigestValue debe ser el SHA-384 de los bytes originales del XML")
}

func TestSign_FirmaVerificable(t *testing.T) {
	svc := NewDigitalSignatureService()
	cert := testCertificate(t)

	signed, err := svc.Sign([]byte(testUBL), cert)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(signed))
	sigVal := doc.FindElement("//ds:SignatureValue")
	require.NotNil(t, sigVal)

	sigBytes, err := base64.StdEncoding.DecodeString(sigVal.Text())
	require.NoError(t, err)

	// Reconstruir SignedInfo tal como lo canonicaliza el servicio
	digest := sha512.Sum384([]byte(testUBL))
	signedInfo := svc.buildSignedInfo(base64.StdEncoding.EncodeToString(digest[:]))
	canonical, err := canonicalizeXML([]byte(signedInfo))
	require.NoError(t, err)
	hash := sha512.Sum384(canonical)

	priv := cert.PrivateKey.(*rsa.PrivateKey)
	err = rsa.VerifyPKCS1v15(&priv.PublicKey, crypto.SHA384, hash[:], sigBytes)
	assert.NoError(t, err, "la firma RSA-SHA384 debe verificar contra el SignedInfo canónico")
}

func TestCanonicalizeXML_ErrorSePropaga(t *testing.T) {
	// Un SignedInfo que no canonicaliza no debe firmarse en crudo: el digest
	// no verificaría contra un verificador que sí canonicaliza.
	_, err := canonicalizeXML([]byte("<ds:SignedInfo><sin-cierre>"))
	require.Error(t, err)
}

func TestSign_ErrorXMLVacio(t *testing.T) {
	svc := NewDigitalSignatureService()
	_, err := svc.Sign(nil, testCertificate(t))
	assert.Error(t, err)
}

func TestSign_ErrorSinExtensiones(t *testing.T) {
	svc := NewDigitalSignatureService()
	_, err := svc.Sign([]byte(`<Invoice Id="document-id"><cbc:ID>X</cbc:ID></Invoice>`), testCertificate(t))
	assert.Error(t, err, "sin ext:UBLExtensions no hay dónde inyectar la firma")
}

func TestSign_ErrorLlaveNoRSA(t *testing.T) {
	svc := NewDigitalSignatureService()
	cert := testCertificate(t)
	cert.PrivateKey = struct{}{} // llave inválida
	_, err := svc.Sign([]byte(testUBL), cert)
	assert.Error(t, err)
}
