package core

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"time"

	"adwatch/logger"

	"github.com/elazarl/goproxy"
)

var (
	caCert *x509.Certificate
	caKey  *rsa.PrivateKey
)

func setGoproxyCA(loadedCA *tls.Certificate) {
	if loadedCA == nil {
		logger.Fatal("setGoproxyCA called with nil certificate")
	}
	goproxy.GoproxyCa = *loadedCA
	logger.ProxyInfo("goproxy CA configured.")
}

// GenerateAndSaveCA creates a fresh root CA and writes the certificate and
// key to the given paths. The certificate must be trusted by the browser that
// is pointed at the rewrite proxy.
func GenerateAndSaveCA(certPath, keyPath string) error {
	localCaCert, localCaKey, err := generateCA("adwatch rewrite proxy CA")
	if err != nil {
		logger.Error("Failed to generate CA: %v", err)
		return fmt.Errorf("failed to generate CA: %w", err)
	}

	certOut, err := os.Create(certPath)
	if err != nil {
		logger.Error("Failed to open %s for writing: %v", certPath, err)
		return fmt.Errorf("failed to open %s for writing: %w", certPath, err)
	}
	defer certOut.Close()
	if err := pem.Encode(certOut, &pem.Block{Type: "CERTIFICATE", Bytes: localCaCert.Raw}); err != nil {
		logger.Error("Failed to write CA certificate to %s: %v", certPath, err)
		return fmt.Errorf("failed to write CA certificate to %s: %w", certPath, err)
	}
	fmt.Printf("CA certificate saved to %s\n", certPath)

	keyOut, err := os.OpenFile(keyPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		logger.Error("Failed to open %s for writing: %v", keyPath, err)
		return fmt.Errorf("failed to open %s for writing: %w", keyPath, err)
	}
	defer keyOut.Close()

	privBytes, err := x509.MarshalPKCS8PrivateKey(localCaKey)
	if err != nil {
		logger.ProxyInfo("Warning: could not marshal private key to PKCS8: %v. Trying PKCS1.", err)
		privBytes = x509.MarshalPKCS1PrivateKey(localCaKey)
		if err := pem.Encode(keyOut, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: privBytes}); err != nil {
			logger.Error("Failed to write CA RSA private key to %s: %v", keyPath, err)
			return fmt.Errorf("failed to write CA RSA private key to %s: %w", keyPath, err)
		}
	} else {
		if err := pem.Encode(keyOut, &pem.Block{Type: "PRIVATE KEY", Bytes: privBytes}); err != nil {
			logger.Error("Failed to write CA private key to %s: %v", keyPath, err)
			return fmt.Errorf("failed to write CA private key to %s: %w", keyPath, err)
		}
	}
	fmt.Printf("CA private key saved to %s\n", keyPath)
	return nil
}

func loadCA(certPath, keyPath string) error {
	certPEMBlock, err := os.ReadFile(certPath)
	if err != nil {
		logger.Error("Failed to read CA certificate file %s: %v", certPath, err)
		return fmt.Errorf("failed to read CA certificate file %s: %w", certPath, err)
	}
	certDERBlock, _ := pem.Decode(certPEMBlock)
	if certDERBlock == nil || certDERBlock.Type != "CERTIFICATE" {
		logger.Error("Failed to decode CA certificate PEM block from %s", certPath)
		return fmt.Errorf("failed to decode CA certificate PEM block from %s", certPath)
	}
	loadedCaCert, err := x509.ParseCertificate(certDERBlock.Bytes)
	if err != nil {
		logger.Error("Failed to parse CA certificate from %s: %v", certPath, err)
		return fmt.Errorf("failed to parse CA certificate from %s: %w", certPath, err)
	}
	caCert = loadedCaCert

	keyPEMBlock, err := os.ReadFile(keyPath)
	if err != nil {
		logger.Error("Failed to read CA key file %s: %v", keyPath, err)
		return fmt.Errorf("failed to read CA key file %s: %w", keyPath, err)
	}
	keyDERBlock, _ := pem.Decode(keyPEMBlock)
	if keyDERBlock == nil {
		logger.Error("Failed to decode CA key PEM block from %s (key block is nil)", keyPath)
		return fmt.Errorf("failed to decode CA key PEM block from %s (key block is nil)", keyPath)
	}

	var parsedKey interface{}
	if keyDERBlock.Type == "PRIVATE KEY" {
		parsedKey, err = x509.ParsePKCS8PrivateKey(keyDERBlock.Bytes)
	} else if keyDERBlock.Type == "RSA PRIVATE KEY" {
		parsedKey, err = x509.ParsePKCS1PrivateKey(keyDERBlock.Bytes)
	} else {
		logger.Error("Unknown CA key PEM block type '%s' from %s", keyDERBlock.Type, keyPath)
		return fmt.Errorf("unknown CA key PEM block type '%s' from %s", keyDERBlock.Type, keyPath)
	}
	if err != nil {
		logger.Error("Failed to parse CA private key from %s (type %s): %v", keyPath, keyDERBlock.Type, err)
		return fmt.Errorf("failed to parse CA private key from %s (type %s): %w", keyPath, keyDERBlock.Type, err)
	}

	loadedCaKey, ok := parsedKey.(*rsa.PrivateKey)
	if !ok {
		logger.Error("CA key from %s is not an RSA private key after parsing type %s", keyPath, keyDERBlock.Type)
		return fmt.Errorf("CA key from %s is not an RSA private key after parsing type %s", keyPath, keyDERBlock.Type)
	}
	caKey = loadedCaKey

	logger.ProxyInfo("CA certificate and key loaded successfully.")
	return nil
}

func generateCA(commonName string) (*x509.Certificate, *rsa.PrivateKey, error) {
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate RSA private key: %w", err)
	}

	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"adwatch Development CA"},
			CommonName:   commonName,
		},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().AddDate(10, 0, 0),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &privKey.PublicKey, privKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create CA certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(derBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse generated CA certificate: %w", err)
	}
	return cert, privKey, nil
}
