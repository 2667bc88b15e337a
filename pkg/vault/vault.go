// Package vault encripta y desencripta el material de firma de cada tenant
// (certificado X.509 y llave privada) en reposo, con una única llave simétrica
// de proceso y cifrado autenticado XChaCha20-Poly1305.
//
// El envelope persistido es {nonce, tag, content} serializado como JSON en
// base64; la desencriptación rechaza cualquier envelope cuyo tag no verifique,
// nunca devuelve basura.
package vault

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeyLen largo de la llave simétrica en bytes (VAULT_KEY = 64 chars hex).
const KeyLen = 32

// Errores del vault.
var (
	ErrKeyMissing      = errors.New("vault: VAULT_KEY no configurada")
	ErrKeyMalformed    = errors.New("vault: VAULT_KEY malformada (se esperan 64 caracteres hex)")
	ErrEnvelopeInvalid = errors.New("vault: envelope malformado")
	ErrDecryptFailed   = errors.New("vault: desencriptación fallida (tag inválido o llave incorrecta)")
)

// envelope es la estructura persistida. Los tres campos van en base64 estándar.
type envelope struct {
	Nonce   string `json:"n"`
	Tag     string `json:"t"`
	Content string `json:"c"`
}

// Vault transforma plaintext <-> envelope. Stateless; seguro para uso concurrente.
type Vault struct {
	key []byte
}

// New construye el vault desde la llave hex de configuración.
// Falla en el arranque si la llave falta o no son exactamente 32 bytes.
func New(keyHex string) (*Vault, error) {
	if keyHex == "" {
		return nil, ErrKeyMissing
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil || len(key) != KeyLen {
		return nil, ErrKeyMalformed
	}
	return &Vault{key: key}, nil
}

// Encrypt cifra plaintext y devuelve el envelope serializado.
// Cada llamada genera un nonce fresco: el mismo plaintext produce envelopes distintos.
func (v *Vault) Encrypt(plaintext []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", fmt.Errorf("vault: inicializar AEAD: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("vault: generar nonce: %w", err)
	}
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	// Seal devuelve ciphertext||tag; el envelope los separa para mantener el
	// formato {nonce, authTag, content} del esquema persistido.
	tagStart := len(sealed) - aead.Overhead()
	env := envelope{
		Nonce:   base64.StdEncoding.EncodeToString(nonce),
		Tag:     base64.StdEncoding.EncodeToString(sealed[tagStart:]),
		Content: base64.StdEncoding.EncodeToString(sealed[:tagStart]),
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("vault: serializar envelope: %w", err)
	}
	return string(raw), nil
}

// Decrypt abre un envelope producido por Encrypt.
// Retorna ErrEnvelopeInvalid si la estructura no parsea y ErrDecryptFailed si
// el tag no verifica (envelope manipulado o llave incorrecta).
func (v *Vault) Decrypt(envelopeJSON string) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal([]byte(envelopeJSON), &env); err != nil {
		return nil, ErrEnvelopeInvalid
	}
	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil || len(nonce) != chacha20poly1305.NonceSizeX {
		return nil, ErrEnvelopeInvalid
	}
	tag, err := base64.StdEncoding.DecodeString(env.Tag)
	if err != nil {
		return nil, ErrEnvelopeInvalid
	}
	content, err := base64.StdEncoding.DecodeString(env.Content)
	if err != nil {
		return nil, ErrEnvelopeInvalid
	}
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return nil, fmt.Errorf("vault: inicializar AEAD: %w", err)
	}
	if len(tag) != aead.Overhead() {
		return nil, ErrEnvelopeInvalid
	}
	plaintext, err := aead.Open(nil, nonce, append(content, tag...), nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plaintext, nil
}
