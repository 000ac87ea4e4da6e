// Package password хеширует пароли и генерирует пароли для новых подписчиков.
//
// GetHash создает bcrypt-хеш пароля для хранения.
// Generate выдаёт случайный пароль из алфавита без похожих символов.
package password

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// DefaultLength длина пароля, который получает подписчик, созданный вебхуком.
const DefaultLength = 10

const alphabet = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GetHash принимает пароль и возвращает его bcrypt‑хэш.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// Generate возвращает случайный пароль длины n.
func Generate(n int) (string, error) {
	const op = "password.Generate"
	if n <= 0 {
		return "", fmt.Errorf("%s: invalid length %d", op, n)
	}
	limit := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf), nil
}

// New генерирует пароль длины DefaultLength и его хэш.
func New() (plain, hash string, err error) {
	plain, err = Generate(DefaultLength)
	if err != nil {
		return "", "", err
	}
	hash, err = GetHash(plain)
	if err != nil {
		return "", "", err
	}
	return plain, hash, nil
}
