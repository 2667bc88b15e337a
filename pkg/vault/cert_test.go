package vault_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/facturacion-pro/pkg/vault"
)

// generarMaterial crea un par certificado autofirmado + llave RSA en PEM, como
// el que una CA entrega para operar con los web services.
func generarMaterial(t *testing.T, notAfter time.Time) (certPEM, keyPEM []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test-emisor", SerialNumber: "CUIT 20123456786"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     notAfter,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return certPEM, keyPEM
}

func TestLooksLikeCertificate(t *testing.T) {
	certPEM, keyPEM := generarMaterial(t, time.Now().Add(365*24*time.Hour))

	assert.True(t, vault.LooksLikeCertificate(certPEM))
	assert.False(t, vault.LooksLikeCertificate(keyPEM), "una llave no es un certificado")
	assert.False(t, vault.LooksLikeCertificate([]byte("texto cualquiera")))
	assert.False(t, vault.LooksLikeCertificate(nil))
}

func TestLooksLikePrivateKey(t *testing.T) {
	certPEM, keyPEM := generarMaterial(t, time.Now().Add(365*24*time.Hour))

	assert.True(t, vault.LooksLikePrivateKey(keyPEM))
	assert.False(t, vault.LooksLikePrivateKey(certPEM))
	assert.False(t, vault.LooksLikePrivateKey([]byte("no es PEM")))

	t.Run("PKCS8 también se acepta", func(t *testing.T) {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		der, err := x509.MarshalPKCS8PrivateKey(key)
		require.NoError(t, err)
		pkcs8PEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
		assert.True(t, vault.LooksLikePrivateKey(pkcs8PEM))
	})
}

func TestCertExpiry(t *testing.T) {
	vencimiento := time.Now().Add(90 * 24 * time.Hour).Truncate(time.Second)
	certPEM, _ := generarMaterial(t, vencimiento)

	expiry, err := vault.CertExpiry(certPEM)
	require.NoError(t, err)
	assert.WithinDuration(t, vencimiento, expiry, 2*time.Second)

	_, err = vault.CertExpiry([]byte("no es un certificado"))
	assert.Error(t, err)
}
