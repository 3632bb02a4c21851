package service

import (
	"errors"
	"testing"
	"time"

	"lactest/internal/config"
	"lactest/internal/store"
)

func TestFormatPace(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{60, "1:00"},
		{317, "5:17"},
		{600, "10:00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatPace(tt.seconds); got != tt.want {
				t.Errorf("formatPace(%d) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestFormatIntensity(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		unit     string
		paceUnit string
		want     string
	}{
		{"speed", 13.54, "km/h", "min/km", "13.5 km/h"},
		{"power", 251.6, "W", "min/km", "252 W"},
		{"pace per km", 5.29, "min/km", "min/km", "5:17 /km"},
		{"pace per mile", 5, "min/km", "min/mi", "8:03 /mi"},
		{"unknown unit", 1.234, "", "min/km", "1.23"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatIntensity(tt.value, tt.unit, tt.paceUnit); got != tt.want {
				t.Errorf("FormatIntensity(%v, %q, %q) = %q, want %q", tt.value, tt.unit, tt.paceUnit, got, tt.want)
			}
		})
	}
}

func TestTestLabel(t *testing.T) {
	at := time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)
	if got := testLabel("Ana", at); got != "Ana, 9 Mar 2024" {
		t.Errorf("testLabel() = %q", got)
	}
	if got := testLabel("", at); got != "9 Mar 2024" {
		t.Errorf("testLabel() without athlete = %q", got)
	}
}

func TestQueryListTests(t *testing.T) {
	svc, db := newTestService(t, config.AthleteConfig{})
	older := importStandard(t, svc, time.Now().AddDate(0, 0, -30))
	newer := importStandard(t, svc, time.Now().AddDate(0, 0, -2))
	if _, err := svc.AnalyzeTest(older); err != nil {
		t.Fatal(err)
	}

	q := NewQueryService(db, "")
	list, total, err := q.ListTests(10, 0)
	if err != nil {
		t.Fatalf("ListTests() error: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("got %d of %d tests, want 2 of 2", len(list), total)
	}
	if list[0].Test.ID != newer {
		t.Errorf("first test = %s, want newest %s", list[0].Test.ID, newer)
	}
	if list[0].LT1 != nil || list[0].LT2 != nil {
		t.Error("unanalyzed test has thresholds")
	}
	if list[1].LT1 == nil || list[1].LT2 == nil {
		t.Fatal("analyzed test is missing thresholds")
	}
	if list[1].LT1.Method != "FIXED_2_0" {
		t.Errorf("LT1 method = %s", list[1].LT1.Method)
	}
	if list[0].When != "2 days ago" {
		t.Errorf("When = %q, want %q", list[0].When, "2 days ago")
	}
}

func TestQueryTestDetail(t *testing.T) {
	svc, db := newTestService(t, config.AthleteConfig{})
	id := importStandard(t, svc, time.Now())
	q := NewQueryService(db, "min/km")

	detail, err := q.GetTestDetail(id)
	if err != nil {
		t.Fatalf("GetTestDetail() error: %v", err)
	}
	if !detail.Stale() || detail.LT1 != nil || detail.Zones != nil {
		t.Error("new test should have no results")
	}
	if detail.Unit != "km/h" || len(detail.Intensities) != 9 {
		t.Errorf("series = %s x%d, want km/h x9", detail.Unit, len(detail.Intensities))
	}
	if detail.Lactates[8] != 9.0 || detail.HeartRates[0] != 120 {
		t.Errorf("series values = %v %v", detail.Lactates, detail.HeartRates)
	}

	if _, err := svc.AnalyzeTest(id); err != nil {
		t.Fatal(err)
	}
	detail, err = q.GetTestDetail(id)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Stale() || detail.LT1 == nil || detail.LT2 == nil || detail.Zones == nil {
		t.Fatalf("analyzed detail incomplete: %+v", detail)
	}
	if len(detail.Zones.Zones) != 5 {
		t.Errorf("got %d zones, want 5", len(detail.Zones.Zones))
	}

	if _, err := q.GetTestDetail("missing"); !errors.Is(err, store.ErrTestNotFound) {
		t.Errorf("GetTestDetail() error = %v, want ErrTestNotFound", err)
	}
}
