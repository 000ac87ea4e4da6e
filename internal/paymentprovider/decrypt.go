package paymentprovider

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// KeyEncoding определяет, как из секрета ClickBank получается ключ AES.
type KeyEncoding string

const (
	// KeyEncodingHex первые 32 hex-символа SHA-1 секрета декодируются в 16 байт (AES-128).
	KeyEncodingHex KeyEncoding = "hex"
	// KeyEncodingASCII те же 32 символа используются как есть (AES-256).
	KeyEncodingASCII KeyEncoding = "ascii"
)

// ParseKeyEncoding разбирает значение из конфигурации. Пустая строка означает hex.
func ParseKeyEncoding(s string) (KeyEncoding, error) {
	switch KeyEncoding(s) {
	case "", KeyEncodingHex:
		return KeyEncodingHex, nil
	case KeyEncodingASCII:
		return KeyEncodingASCII, nil
	default:
		return "", fmt.Errorf("unknown clickbank key encoding %q", s)
	}
}

// Envelope конверт уведомления ClickBank.
type Envelope struct {
	IV           string `json:"iv"`
	Notification string `json:"notification"`
}

// ParseEnvelope разбирает тело запроса ClickBank.
func ParseEnvelope(body []byte) (Envelope, error) {
	const op = "paymentprovider.ParseEnvelope"

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("%s: %w: %w", op, ErrDecryption, err)
	}
	if env.IV == "" {
		return Envelope{}, fmt.Errorf("%s: %w: missing iv", op, ErrDecryption)
	}
	if env.Notification == "" {
		return Envelope{}, fmt.Errorf("%s: %w: missing notification", op, ErrDecryption)
	}
	return env, nil
}

// ClickBankKey выводит ключ AES из секрета: SHA-1 hex, первые 32 символа.
func ClickBankKey(secret string, enc KeyEncoding) ([]byte, error) {
	sum := sha1.Sum([]byte(secret))
	digest := hex.EncodeToString(sum[:])[:32]

	switch enc {
	case KeyEncodingASCII:
		return []byte(digest), nil
	case KeyEncodingHex, "":
		return hex.DecodeString(digest)
	default:
		return nil, fmt.Errorf("unknown clickbank key encoding %q", enc)
	}
}

// DecryptClickBank расшифровывает тело вебхука ClickBank и возвращает
// плоскую карту полей уведомления (вложенные ключи через точку).
func DecryptClickBank(body []byte, secret string, enc KeyEncoding) (map[string]string, error) {
	const op = "paymentprovider.DecryptClickBank"

	env, err := ParseEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	plain, err := decryptEnvelope(env, secret, enc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrDecryption, err)
	}

	fields, err := Flatten(plain)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrDecryption, err)
	}
	return fields, nil
}

func decryptEnvelope(env Envelope, secret string, enc KeyEncoding) ([]byte, error) {
	iv, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil {
		return nil, fmt.Errorf("decode iv: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("iv length %d, want %d", len(iv), aes.BlockSize)
	}

	data, err := base64.StdEncoding.DecodeString(env.Notification)
	if err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of the block size", len(data))
	}

	key, err := ClickBankKey(secret, enc)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	plain := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, data)

	return trimPadding(plain), nil
}

// trimPadding убирает PKCS#7 и хвостовые управляющие символы и пробелы,
// которыми провайдер может дополнять уведомление.
func trimPadding(b []byte) []byte {
	return bytes.TrimRightFunc(b, func(r rune) bool {
		return r <= 0x10 || r == ' '
	})
}

// EncryptClickBank шифрует уведомление так же, как это делает ClickBank,
// и возвращает готовое тело запроса.
func EncryptClickBank(notification []byte, secret string, enc KeyEncoding) ([]byte, error) {
	const op = "paymentprovider.EncryptClickBank"

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	body, err := encryptWithIV(notification, iv, secret, enc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return body, nil
}

func encryptWithIV(notification, iv []byte, secret string, enc KeyEncoding) ([]byte, error) {
	if len(iv) != aes.BlockSize {
		return nil, errors.New("invalid iv length")
	}
	key, err := ClickBankKey(secret, enc)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	pad := aes.BlockSize - len(notification)%aes.BlockSize
	plain := append(append([]byte(nil), notification...), bytes.Repeat([]byte{byte(pad)}, pad)...)

	data := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(data, plain)

	return json.Marshal(Envelope{
		IV:           base64.StdEncoding.EncodeToString(iv),
		Notification: base64.StdEncoding.EncodeToString(data),
	})
}
