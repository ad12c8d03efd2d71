package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/felixgeelhaar/oneway/internal/errors"
)

const (
	pbkdf2Iterations = 100000
	saltSize         = 16
	keySize          = 32
)

// NewEncryptedFileStore creates a FileStore whose token is sealed with
// AES-GCM under a key derived from passphrase. A fresh salt is generated on
// every Set.
func NewEncryptedFileStore(path, passphrase string) (*FileStore, error) {
	if passphrase == "" {
		return nil, errors.NewFieldRequiredError("passphrase").
			WithSuggestion("Set ONEWAY_PASSPHRASE or choose the 'file' store backend")
	}
	return &FileStore{path: path, sealer: aesgcm{passphrase: []byte(passphrase)}}, nil
}

type aesgcm struct {
	passphrase []byte
}

func (a aesgcm) gcm(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(a.passphrase, salt, pbkdf2Iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (a aesgcm) seal(doc *document, token string) error {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to generate salt", err)
	}

	gcm, err := a.gcm(salt)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to initialise cipher", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to generate nonce", err)
	}

	doc.Salt = base64.StdEncoding.EncodeToString(salt)
	doc.Token = base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, []byte(token), nil))
	return nil
}

func (a aesgcm) open(doc document) (string, error) {
	salt, err := base64.StdEncoding.DecodeString(doc.Salt)
	if err != nil || len(salt) != saltSize {
		return "", errors.New(errors.ErrCodeStoreDecrypt, "credential file has no valid salt")
	}

	data, err := base64.StdEncoding.DecodeString(doc.Token)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStoreDecrypt, "credential file is not valid base64", err)
	}

	gcm, err := a.gcm(salt)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStoreDecrypt, "failed to initialise cipher", err)
	}

	if len(data) < gcm.NonceSize() {
		return "", errors.New(errors.ErrCodeStoreDecrypt, "ciphertext too short")
	}

	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStoreDecrypt, "failed to decrypt token", err).
			WithSuggestion("Check that ONEWAY_PASSPHRASE matches the one used at login")
	}
	return string(plaintext), nil
}
