package scheduler

import (
	"testing"
	"time"

	"github.com/akimenko/graphflow/internal/domain"
)

func TestCalculateNextDue_Hourly(t *testing.T) {
	c := &domain.Chain{CronExpr: "0 * * * *", Timezone: "UTC"}
	from := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	next, err := CalculateNextDue(c, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestCalculateNextDue_Timezone(t *testing.T) {
	// Полночь по Токио — 15:00 UTC предыдущего дня
	c := &domain.Chain{CronExpr: "0 0 * * *", Timezone: "Asia/Tokyo"}
	from := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(c, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestCalculateNextDue_InvalidTimezoneFallsBackToUTC(t *testing.T) {
	c := &domain.Chain{CronExpr: "0 12 * * *", Timezone: "Mars/Olympus"}
	from := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(c, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestCalculateNextDue_NoExpression(t *testing.T) {
	c := &domain.Chain{}
	if _, err := CalculateNextDue(c, time.Now()); err == nil {
		t.Fatal("expected error for chain without cron expression")
	}
}

func TestValidateCronExpr(t *testing.T) {
	if err := ValidateCronExpr("*/15 * * * *"); err != nil {
		t.Errorf("valid expression rejected: %v", err)
	}
	if err := ValidateCronExpr("61 * * * *"); err == nil {
		t.Error("invalid minute accepted")
	}
	if err := ValidateCronExpr("not a cron"); err == nil {
		t.Error("garbage accepted")
	}
}
