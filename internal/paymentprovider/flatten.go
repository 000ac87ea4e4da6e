package paymentprovider

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Flatten разбирает JSON-объект и раскладывает вложенные объекты и массивы
// в плоскую карту с ключами через точку: customer.billing.email, lineItems.0.itemNo.
// Числа сохраняют исходную запись, null превращается в пустую строку.
func Flatten(data []byte) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("parse notification: %w", err)
	}
	if root == nil {
		return nil, fmt.Errorf("parse notification: not a json object")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse notification: unexpected data after the json object")
	}

	out := make(map[string]string)
	flattenValue(out, "", root)
	return out, nil
}

func flattenValue(out map[string]string, prefix string, v any) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			flattenValue(out, join(prefix, k), child)
		}
	case []any:
		for i, child := range val {
			flattenValue(out, join(prefix, strconv.Itoa(i)), child)
		}
	case string:
		out[prefix] = val
	case json.Number:
		out[prefix] = val.String()
	case bool:
		out[prefix] = strconv.FormatBool(val)
	case nil:
		out[prefix] = ""
	default:
		out[prefix] = fmt.Sprint(val)
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
