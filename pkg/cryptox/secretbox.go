package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	dataKeyOnce sync.Once
	dataKey     []byte
	dataKeyPath string
)

// SetDataKeyPath configures where to load the data encryption key from.
// Must be called before the first Encrypt/Decrypt.
func SetDataKeyPath(path string) {
	dataKeyPath = path
}

// loadDataKey derives a 32-byte AES-256 key from either the configured key
// file, the KALAS_DATA_KEY environment variable, or (for development only)
// a freshly generated ephemeral key that will not survive a restart.
func loadDataKey() ([]byte, error) {
	var material []byte

	switch {
	case dataKeyPath != "":
		data, err := os.ReadFile(dataKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read data key file: %w", err)
		}
		material = data
	case os.Getenv("KALAS_DATA_KEY") != "":
		material = []byte(os.Getenv("KALAS_DATA_KEY"))
	default:
		material = make([]byte, 32)
		if _, err := rand.Read(material); err != nil {
			return nil, fmt.Errorf("generate ephemeral data key: %w", err)
		}
	}

	sum := sha256.Sum256(material)
	return sum[:], nil
}

func getDataKey() ([]byte, error) {
	var err error
	dataKeyOnce.Do(func() {
		dataKey, err = loadDataKey()
	})
	if err != nil {
		return nil, err
	}
	return dataKey, nil
}

// Encrypt seals plaintext with AES-256-GCM under the data key.
// Output layout: [12-byte nonce][ciphertext][16-byte auth tag].
func Encrypt(plaintext []byte) ([]byte, error) {
	key, err := getDataKey()
	if err != nil {
		return nil, fmt.Errorf("cryptox: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cryptox: generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens data produced by Encrypt.
func Decrypt(sealed []byte) ([]byte, error) {
	key, err := getDataKey()
	if err != nil {
		return nil, fmt.Errorf("cryptox: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create GCM: %w", err)
	}

	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("cryptox: ciphertext too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("cryptox: decryption failed: %w", err)
	}
	return plaintext, nil
}

// ResetDataKeyForTesting resets the key singleton. Tests only.
func ResetDataKeyForTesting() {
	dataKeyOnce = sync.Once{}
	dataKey = nil
	dataKeyPath = ""
}
