// Firma CMS (PKCS#7 SignedData) del Ticket de Requerimiento de Acceso (TRA).
// WSAA exige el TRA embebido en un SignedData con el certificado del emisor
// incluido, firmado SHA256-RSA, todo en DER. Se construye el ASN.1 a mano con
// encoding/asn1: el protocolo no usa atributos firmados ni cadenas de
// certificados, así que la estructura es pequeña y estable.

package signer

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/asn1"
	"fmt"
	"math/big"
)

// OIDs PKCS#7 / algoritmos.
var (
	oidData          = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}
	oidSignedData    = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}
	oidSHA256        = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}
	oidRSAEncryption = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
)

type contentInfo struct {
	ContentType asn1.ObjectIdentifier
	Content     asn1.RawValue `asn1:"explicit,optional,tag:0"`
}

type algorithmIdentifier struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.RawValue `asn1:"optional"`
}

type issuerAndSerial struct {
	IssuerName   asn1.RawValue
	SerialNumber *big.Int
}

type signerInfo struct {
	Version                   int
	IssuerAndSerialNumber     issuerAndSerial
	DigestAlgorithm           algorithmIdentifier
	DigestEncryptionAlgorithm algorithmIdentifier
	EncryptedDigest           []byte
}

type signedData struct {
	Version          int
	DigestAlgorithms []algorithmIdentifier `asn1:"set"`
	ContentInfo      contentInfo
	Certificates     asn1.RawValue `asn1:"optional,tag:0"`
	SignerInfos      []signerInfo  `asn1:"set"`
}

// asn1Null parámetro NULL para los AlgorithmIdentifier.
var asn1Null = asn1.RawValue{Tag: asn1.TagNull}

// CMSService firma TRAs para WSAA. Análogo al servicio de firma XAdES de un
// régimen UBL, pero el formato de AFIP es CMS sobre los bytes literales del
// XML, sin canonicalización.
type CMSService struct{}

// NewCMSService crea el servicio.
func NewCMSService() *CMSService {
	return &CMSService{}
}

// SignTRA envuelve el TRA en un SignedData DER firmado con la llave del
// tenant y su certificado embebido para verificación por AFIP.
func (s *CMSService) SignTRA(tra []byte, cert tls.Certificate) ([]byte, error) {
	if len(tra) == 0 {
		return nil, fmt.Errorf("signer: TRA vacío")
	}
	key, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("signer: el certificado debe incluir llave privada RSA")
	}
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("signer: certificado vacío")
	}
	leaf := cert.Leaf
	if leaf == nil {
		parsed, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return nil, fmt.Errorf("signer: parsear certificado: %w", err)
		}
		leaf = parsed
	}

	// Firma: sin atributos firmados, el EncryptedDigest es la firma RSA
	// PKCS#1 v1.5 del digest SHA-256 del contenido.
	digest := sha256.Sum256(tra)
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("signer: firmar TRA: %w", err)
	}

	// Contenido embebido: OCTET STRING con el TRA, dentro de [0] EXPLICIT.
	traOctets, err := asn1.Marshal(tra)
	if err != nil {
		return nil, fmt.Errorf("signer: encapsular TRA: %w", err)
	}

	sd := signedData{
		Version:          1,
		DigestAlgorithms: []algorithmIdentifier{{Algorithm: oidSHA256, Parameters: asn1Null}},
		ContentInfo: contentInfo{
			ContentType: oidData,
			Content:     asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: traOctets},
		},
		// [0] IMPLICIT: el DER del certificado va crudo dentro del tag.
		Certificates: asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: leaf.Raw},
		SignerInfos: []signerInfo{{
			Version: 1,
			IssuerAndSerialNumber: issuerAndSerial{
				IssuerName:   asn1.RawValue{FullBytes: leaf.RawIssuer},
				SerialNumber: leaf.SerialNumber,
			},
			DigestAlgorithm:           algorithmIdentifier{Algorithm: oidSHA256, Parameters: asn1Null},
			DigestEncryptionAlgorithm: algorithmIdentifier{Algorithm: oidRSAEncryption, Parameters: asn1Null},
			EncryptedDigest:           signature,
		}},
	}

	inner, err := asn1.Marshal(sd)
	if err != nil {
		return nil, fmt.Errorf("signer: serializar SignedData: %w", err)
	}
	outer, err := asn1.Marshal(contentInfo{
		ContentType: oidSignedData,
		Content:     asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: inner},
	})
	if err != nil {
		return nil, fmt.Errorf("signer: serializar ContentInfo: %w", err)
	}
	return outer, nil
}
