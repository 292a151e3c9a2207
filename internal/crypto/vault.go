// Package crypto seals marketplace credentials in a password-protected vault
// file so they need not sit in plain config or the environment.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// pbkdf2Iterations follows the OWASP minimum for PBKDF2-HMAC-SHA256.
	pbkdf2Iterations = 480_000
	saltLen          = 16
	aesKeyLen        = 32
	vaultVersion     = 1
)

// ErrWrongPassword is returned when the vault cannot be authenticated.
var ErrWrongPassword = errors.New("crypto: vault decryption failed (wrong password?)")

// Credentials are the secrets a deployment may keep in the vault. Empty
// fields leave the corresponding config value untouched.
type Credentials struct {
	EbayClientID      string `json:"ebay_client_id,omitempty"`
	EbayClientSecret  string `json:"ebay_client_secret,omitempty"`
	AmazonAccessKey   string `json:"amazon_access_key,omitempty"`
	AmazonSecretKey   string `json:"amazon_secret_key,omitempty"`
	AmazonPartnerTag  string `json:"amazon_partner_tag,omitempty"`
	TelegramToken     string `json:"telegram_token,omitempty"`
	DiscordWebhookURL string `json:"discord_webhook_url,omitempty"`
	APIKey            string `json:"api_key,omitempty"`
}

// sealedVault is the on-disk format. Binary fields are standard base64.
type sealedVault struct {
	Version    int    `json:"version"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// Seal encrypts creds with a key derived from password using PBKDF2-SHA256
// and AES-256-GCM, returning the JSON vault document.
func Seal(creds Credentials, password string) ([]byte, error) {
	if password == "" {
		return nil, errors.New("crypto: password must not be empty")
	}
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("crypto: marshal credentials: %w", err)
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("crypto: generating salt: %w", err)
	}
	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("crypto: generating nonce: %w", err)
	}

	return json.MarshalIndent(sealedVault{
		Version:    vaultVersion,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(gcm.Seal(nil, nonce, plaintext, nil)),
	}, "", "  ")
}

// Open decrypts a vault document produced by Seal.
func Open(data []byte, password string) (Credentials, error) {
	var creds Credentials
	if password == "" {
		return creds, errors.New("crypto: password must not be empty")
	}

	var v sealedVault
	if err := json.Unmarshal(data, &v); err != nil {
		return creds, fmt.Errorf("crypto: parse vault: %w", err)
	}
	if v.Version != vaultVersion {
		return creds, fmt.Errorf("crypto: unsupported vault version %d", v.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(v.Salt)
	if err != nil {
		return creds, fmt.Errorf("crypto: decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(v.Nonce)
	if err != nil {
		return creds, fmt.Errorf("crypto: decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(v.Ciphertext)
	if err != nil {
		return creds, fmt.Errorf("crypto: decode ciphertext: %w", err)
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return creds, err
	}
	if len(nonce) != gcm.NonceSize() {
		return creds, fmt.Errorf("crypto: nonce length %d", len(nonce))
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return creds, ErrWrongPassword
	}
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return creds, fmt.Errorf("crypto: decode credentials: %w", err)
	}
	return creds, nil
}

// LoadVault reads and opens the vault at path.
func LoadVault(path, password string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("crypto: read vault: %w", err)
	}
	return Open(data, password)
}

// WriteVault seals creds and writes the vault to path with 0600 permissions.
func WriteVault(path string, creds Credentials, password string) error {
	data, err := Seal(creds, password)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("crypto: write vault: %w", err)
	}
	return nil
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, aesKeyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: create GCM: %w", err)
	}
	return gcm, nil
}
