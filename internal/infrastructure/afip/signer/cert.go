// Carga del par certificado/llave desde bloques PEM en memoria.

package signer

import (
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// ParsePair arma un tls.Certificate desde los bloques PEM desencriptados del
// vault. Solo se soportan llaves RSA (es lo que emiten las CAs habilitadas
// por AFIP).
func ParsePair(certPEM, keyPEM []byte) (tls.Certificate, error) {
	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil || certBlock.Type != "CERTIFICATE" {
		return tls.Certificate{}, fmt.Errorf("signer: el certificado no es un bloque PEM CERTIFICATE")
	}
	leaf, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("signer: parsear certificado: %w", err)
	}

	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return tls.Certificate{}, fmt.Errorf("signer: la llave privada no es un bloque PEM")
	}
	var key *rsa.PrivateKey
	switch keyBlock.Type {
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(keyBlock.Bytes)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("signer: parsear llave PKCS#1: %w", err)
		}
	case "PRIVATE KEY":
		parsed, errPK := x509.ParsePKCS8PrivateKey(keyBlock.Bytes)
		if errPK != nil {
			return tls.Certificate{}, fmt.Errorf("signer: parsear llave PKCS#8: %w", errPK)
		}
		var ok bool
		key, ok = parsed.(*rsa.PrivateKey)
		if !ok {
			return tls.Certificate{}, fmt.Errorf("signer: la llave PKCS#8 no es RSA")
		}
	default:
		return tls.Certificate{}, fmt.Errorf("signer: tipo de bloque PEM inesperado %q", keyBlock.Type)
	}

	return tls.Certificate{
		Certificate: [][]byte{leaf.Raw},
		PrivateKey:  key,
		Leaf:        leaf,
	}, nil
}
