package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/membership-ipn/internal/paymentprovider"
)

const (
	jvzooContentType     = "application/x-www-form-urlencoded"
	clickBankContentType = "application/json"
)

// jvzooBody собирает форму из пар key=value и добавляет cverify.
func jvzooBody(fields []string, secret string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("jvzoo secret key is not set")
	}

	form := url.Values{}
	for _, f := range fields {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q, want key=value", f)
		}
		form.Add(key, value)
	}
	if len(form) == 0 {
		return nil, fmt.Errorf("no fields given")
	}

	form.Set(paymentprovider.SignatureField, paymentprovider.SignJVZoo(form, secret))
	return []byte(form.Encode()), nil
}

// clickBankBody шифрует уведомление и возвращает JSON конверт.
func clickBankBody(notification []byte, secret, encoding string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("clickbank secret key is not set")
	}
	enc, err := paymentprovider.ParseKeyEncoding(encoding)
	if err != nil {
		return nil, err
	}
	if _, err := paymentprovider.Flatten(notification); err != nil {
		return nil, fmt.Errorf("notification is not valid JSON: %w", err)
	}
	return paymentprovider.EncryptClickBank(notification, secret, enc)
}

func readNotification(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func newClient(timeout time.Duration) *resty.Client {
	return resty.New().SetTimeout(timeout)
}

// send отправляет тело и возвращает код и текст ответа сервера.
func send(ctx context.Context, client *resty.Client, target, contentType string, body []byte) (int, string, error) {
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(body).
		Post(target)
	if err != nil {
		return 0, "", fmt.Errorf("post %s: %w", target, err)
	}
	return resp.StatusCode(), resp.String(), nil
}
