// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

package schedule

import (
	"testing"
	"time"
)

// Monday 2026-03-02 14:30 local.
var critNow = time.Date(2026, 3, 2, 14, 30, 0, 0, time.Local)

func TestResolveDateTimeMetrics(t *testing.T) {
	tests := []struct {
		metric   string
		expected string
	}{
		{"dayOfWeek", "Monday"},
		{"dayOfMonth", "2"},
		{"month", "3"},
		{"hour", "14"},
		{"isoDay", "1"},
	}

	for _, tt := range tests {
		got, ok := resolveMetric(tt.metric, critNow, Env{})
		if !ok {
			t.Errorf("resolveMetric(%q) not resolved", tt.metric)
			continue
		}
		if got != tt.expected {
			t.Errorf("resolveMetric(%q) = %q, want %q", tt.metric, got, tt.expected)
		}
	}
}

func TestResolveWeatherMetrics(t *testing.T) {
	env := Env{Weather: &Weather{
		Temperature: 21.5,
		Humidity:    60,
		WindSpeed:   3.2,
		Condition:   "Clouds",
		CloudCover:  75,
	}}

	if got, ok := resolveMetric("weatherTemp", critNow, env); !ok || got != "21.5" {
		t.Errorf("weatherTemp = %q ok=%v", got, ok)
	}
	if got, ok := resolveMetric("weatherCondition", critNow, env); !ok || got != "Clouds" {
		t.Errorf("weatherCondition = %q ok=%v", got, ok)
	}

	// No weather snapshot: metric unresolved, predicate false.
	if _, ok := resolveMetric("weatherTemp", critNow, Env{}); ok {
		t.Error("weatherTemp should be unresolved without a snapshot")
	}
}

func TestResolveDisplayProperties(t *testing.T) {
	env := Env{DisplayProperties: map[string]string{"venue": "Airport"}}
	if got, ok := resolveMetric("venue", critNow, env); !ok || got != "Airport" {
		t.Errorf("venue = %q ok=%v", got, ok)
	}
	if _, ok := resolveMetric("unknownMetric", critNow, env); ok {
		t.Error("unknown metric must not resolve")
	}
}

func TestEvalCriterionNumeric(t *testing.T) {
	env := Env{Weather: &Weather{Temperature: 21.5}}

	tests := []struct {
		name      string
		condition string
		value     string
		expected  bool
	}{
		{"equals match", "equals", "21.5", true},
		{"equals miss", "equals", "20", false},
		{"notEquals", "notEquals", "20", true},
		{"greaterThan", "greaterThan", "20", true},
		{"greaterThanOrEquals", "greaterThanOrEquals", "21.5", true},
		{"lessThan", "lessThan", "25", true},
		{"lessThanOrEquals miss", "lessThanOrEquals", "20", false},
		{"in match", "in", "20, 21.5, 23", true},
		{"in miss", "in", "20,23", false},
		{"parse failure yields false", "greaterThan", "warm", false},
		{"unknown condition yields false", "between", "20", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Criterion{Metric: "weatherTemp", Condition: tt.condition, Type: "number", Value: tt.value}
			if got := evalCriterion(c, critNow, env); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEvalCriterionString(t *testing.T) {
	env := Env{Weather: &Weather{Condition: "Scattered Clouds"}}

	tests := []struct {
		name      string
		condition string
		value     string
		expected  bool
	}{
		{"equals case-insensitive", "equals", "scattered clouds", true},
		{"notEquals", "notEquals", "rain", true},
		{"contains", "contains", "clouds", true},
		{"notContains", "notContains", "rain", true},
		{"startsWith", "startsWith", "SCATTERED", true},
		{"endsWith", "endsWith", "Clouds", true},
		{"in", "in", "rain, scattered clouds, snow", true},
		{"in miss", "in", "rain,snow", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Criterion{Metric: "weatherCondition", Condition: tt.condition, Type: "string", Value: tt.value}
			if got := evalCriterion(c, critNow, env); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEvalCriteriaAllMustPass(t *testing.T) {
	env := Env{Weather: &Weather{Temperature: 21.5, Condition: "Clear"}}

	pass := []Criterion{
		{Metric: "weatherTemp", Condition: "greaterThan", Type: "number", Value: "20"},
		{Metric: "weatherCondition", Condition: "equals", Type: "string", Value: "clear"},
	}
	if !evalCriteria(pass, critNow, env) {
		t.Error("expected all predicates to pass")
	}

	mixed := append(pass, Criterion{Metric: "weatherTemp", Condition: "lessThan", Type: "number", Value: "10"})
	if evalCriteria(mixed, critNow, env) {
		t.Error("one failing predicate must fail the set")
	}

	if !evalCriteria(nil, critNow, env) {
		t.Error("empty criteria must pass")
	}
}

func TestUnknownMetricFailsPredicate(t *testing.T) {
	c := Criterion{Metric: "nope", Condition: "equals", Type: "string", Value: "x"}
	if evalCriterion(c, critNow, Env{}) {
		t.Error("unknown metric must yield false")
	}
}
