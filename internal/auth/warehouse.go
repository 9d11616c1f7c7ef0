package auth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
	"time"
)

// WarehouseJWT mints the RS256 bearer tokens the document warehouse expects
// for keypair authentication. The issuer embeds the SHA-256 fingerprint of
// the public key in SPKI form, which is how the warehouse matches the token
// to the registered key.
type WarehouseJWT struct {
	Account string
	User    string
	Key     *rsa.PrivateKey
	TTL     time.Duration
}

func NewWarehouseJWT(account, user string, key *rsa.PrivateKey) *WarehouseJWT {
	return &WarehouseJWT{Account: account, User: user, Key: key, TTL: time.Hour}
}

// ParsePrivateKey reads a PEM-encoded RSA private key in PKCS#8 or PKCS#1
// form. Escaped newlines are unescaped first, so the key can be carried in a
// single-line environment variable.
func ParsePrivateKey(pemText string) (*rsa.PrivateKey, error) {
	pemText = strings.ReplaceAll(pemText, `\n`, "\n")
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, errors.New("parse private key: no PEM block")
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("parse private key: not an RSA key")
		}
		return rsaKey, nil
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

// Fingerprint returns the base64 SHA-256 digest of the public key in SPKI
// DER form, prefixed the way the warehouse issuer field expects.
func (w *WarehouseJWT) Fingerprint() (string, error) {
	der, err := x509.MarshalPKIXPublicKey(&w.Key.PublicKey)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	sum := sha256.Sum256(der)
	return "SHA256:" + base64.StdEncoding.EncodeToString(sum[:]), nil
}

// Mint returns a signed RS256 token valid for the configured TTL.
func (w *WarehouseJWT) Mint(now time.Time) (string, error) {
	if w.Key == nil {
		return "", errors.New("mint warehouse jwt: no private key")
	}
	fingerprint, err := w.Fingerprint()
	if err != nil {
		return "", err
	}

	qualified := strings.ToUpper(w.Account) + "." + strings.ToUpper(w.User)
	ttl := w.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	header := map[string]string{"alg": "RS256", "typ": "JWT"}
	payload := map[string]any{
		"iss": qualified + "." + fingerprint,
		"sub": qualified,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", fmt.Errorf("marshal jwt header: %w", err)
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal jwt payload: %w", err)
	}

	signingInput := base64.RawURLEncoding.EncodeToString(headerJSON) +
		"." + base64.RawURLEncoding.EncodeToString(payloadJSON)
	digest := sha256.Sum256([]byte(signingInput))
	signature, err := rsa.SignPKCS1v15(rand.Reader, w.Key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(signature), nil
}
