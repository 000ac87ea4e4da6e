// Package sl содержит вспомогательные функции для логгера slog.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Secret маскирует значение секрета для логов и String() конфигурации.
// Пустое значение остаётся пустым, чтобы было видно, что секрет не задан.
func Secret(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
