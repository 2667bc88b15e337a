// Validaciones estructurales del material de firma e importación desde .p12.
// Los chequeos son de formato, no de validez criptográfica: esa la hace AFIP
// al procesar el LoginCms.

package vault

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"

	"golang.org/x/crypto/pkcs12"
)

// LooksLikeCertificate verifica que el texto sea un bloque PEM CERTIFICATE parseable.
func LooksLikeCertificate(certPEM []byte) bool {
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return false
	}
	_, err := x509.ParseCertificate(block.Bytes)
	return err == nil
}

// LooksLikePrivateKey verifica que el texto sea un bloque PEM de llave privada
// (PKCS#1 o PKCS#8). No valida que la llave corresponda al certificado.
func LooksLikePrivateKey(keyPEM []byte) bool {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return false
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		_, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		return err == nil
	case "PRIVATE KEY":
		_, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		return err == nil
	default:
		return false
	}
}

// CertExpiry extrae la fecha de vencimiento (NotAfter) del certificado PEM,
// para persistirla junto al perfil fiscal y poder avisar antes de que venza.
func CertExpiry(certPEM []byte) (time.Time, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return time.Time{}, fmt.Errorf("vault: el texto no es un certificado PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return time.Time{}, fmt.Errorf("vault: parsear certificado: %w", err)
	}
	return cert.NotAfter, nil
}

// PEMFromP12 extrae certificado y llave privada de un archivo .p12/.pfx y los
// devuelve como bloques PEM listos para encriptar. Las CAs argentinas suelen
// entregar el material de firma en este formato.
func PEMFromP12(p12 []byte, password string) (certPEM, keyPEM []byte, err error) {
	priv, cert, err := pkcs12.Decode(p12, password)
	if err != nil {
		return nil, nil, fmt.Errorf("vault: decodificar p12: %w", err)
	}
	rsaKey, ok := priv.(*rsa.PrivateKey)
	if !ok {
		return nil, nil, fmt.Errorf("vault: el p12 debe contener una llave privada RSA")
	}
	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(rsaKey)})
	return certPEM, keyPEM, nil
}
