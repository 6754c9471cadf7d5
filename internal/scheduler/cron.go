package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/akimenko/graphflow/internal/domain"
)

// cronParser — парсер cron-выражений (5 полей, без секунд).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// CalculateNextDue вычисляет следующее время запуска цепочки.
// Учитывает timezone цепочки; невалидный timezone трактуется как UTC.
func CalculateNextDue(c *domain.Chain, from time.Time) (time.Time, error) {
	if c.CronExpr == "" {
		return time.Time{}, fmt.Errorf("chain has no cron expression")
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		loc = time.UTC
	}

	schedule, err := cronParser.Parse(c.CronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", c.CronExpr, err)
	}

	// Возвращаем в UTC для хранения в БД
	return schedule.Next(from.In(loc)).UTC(), nil
}

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	if _, err := cronParser.Parse(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}

// CalculateInitialNextDue вычисляет первое время запуска для новой
// или перенастроенной цепочки. Используется при создании через API.
func CalculateInitialNextDue(c *domain.Chain) (time.Time, error) {
	return CalculateNextDue(c, time.Now())
}
