// Package validity считает даты окончания подписки.
// Все даты хранятся как полночь UTC календарного дня в часовом поясе сервиса.
package validity

import "time"

// DateLayout формат даты в комментариях аудита и уведомлениях.
const DateLayout = "2006-01-02"

// Today возвращает текущую дату в поясе loc как полночь UTC.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays сдвигает дату на days календарных дней.
func AddDays(date time.Time, days int) time.Time {
	return date.AddDate(0, 0, days)
}

// Format форматирует дату в DateLayout.
func Format(date time.Time) string {
	return date.Format(DateLayout)
}

// Parse разбирает дату в формате DateLayout.
func Parse(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
