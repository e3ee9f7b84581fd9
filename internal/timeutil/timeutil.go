package timeutil

import "time"

// ISOWeekday возвращает день недели, где 0 = понедельник, 6 = воскресенье
func ISOWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// MinutesOfDay возвращает количество минут с начала суток
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// DatetimeLink возвращает ссылку на мировое время для писем
func DatetimeLink(t time.Time) string {
	return "https://www.timeanddate.com/worldclock/fixedtime.html?iso=" + t.UTC().Format("2006-01-02T15:04:05")
}
