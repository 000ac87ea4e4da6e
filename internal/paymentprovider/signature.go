package paymentprovider

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// SignatureField имя поля формы JVZoo с контрольной суммой.
const SignatureField = "cverify"

const signatureLen = 8

// SignJVZoo вычисляет контрольную сумму формы JVZoo.
//
// Все пары, кроме cverify, сортируются по ключу (значения одного ключа тоже
// сортируются), значения склеиваются через "|", в конец дописывается секрет.
// Результат - первые 8 символов SHA-1 в верхнем регистре.
func SignJVZoo(form url.Values, secret string) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		if k == SignatureField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		values := append([]string(nil), form[k]...)
		sort.Strings(values)
		for _, v := range values {
			b.WriteString(v)
			b.WriteByte('|')
		}
	}
	b.WriteString(secret)

	sum := sha1.Sum([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:signatureLen]
}

// VerifyJVZoo проверяет поле cverify формы.
// Возвращает ErrMissingField, если поля нет, и ErrAuthentication при несовпадении.
func VerifyJVZoo(form url.Values, secret string) error {
	const op = "paymentprovider.VerifyJVZoo"

	if _, ok := form[SignatureField]; !ok {
		return fmt.Errorf("%s: %w: %s", op, ErrMissingField, SignatureField)
	}

	want := SignJVZoo(form, secret)
	got := form.Get(SignatureField)
	if subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		return fmt.Errorf("%s: %w", op, ErrAuthentication)
	}
	return nil
}
