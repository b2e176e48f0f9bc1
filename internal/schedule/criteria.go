// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

package schedule

import (
	"strconv"
	"strings"
	"time"
)

// Weather is the snapshot the criteria engine reads weather metrics from.
// The collection loop refreshes it each cycle; evaluation proceeds without
// weather metrics when it is nil.
type Weather struct {
	Temperature float64 `json:"temp"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	Condition   string  `json:"condition"`
	CloudCover  float64 `json:"cloudCover"`
}

// Env carries the external state the evaluator consults: player location for
// geo fences, CMS-configured display properties, and the latest weather
// snapshot. Any field may be absent.
type Env struct {
	Location          *Location
	DisplayProperties map[string]string
	Weather           *Weather
}

// criterionTypeNumber marks numeric comparison; anything else compares as
// case-insensitive strings.
const criterionTypeNumber = "number"

// evalCriteria reports whether every criterion passes. An empty set passes.
func evalCriteria(criteria []Criterion, now time.Time, env Env) bool {
	for _, c := range criteria {
		if !evalCriterion(c, now, env) {
			return false
		}
	}
	return true
}

// evalCriterion evaluates a single predicate. Unknown metrics and numeric
// parse failures yield false: a predicate the player cannot resolve must not
// admit a layout.
func evalCriterion(c Criterion, now time.Time, env Env) bool {
	actual, ok := resolveMetric(c.Metric, now, env)
	if !ok {
		return false
	}

	if strings.EqualFold(c.Type, criterionTypeNumber) {
		return evalNumeric(actual, c.Condition, c.Value)
	}
	return evalString(actual, c.Condition, c.Value)
}

// resolveMetric looks a metric up in date/time, weather, then the display
// property bag.
func resolveMetric(metric string, now time.Time, env Env) (string, bool) {
	switch metric {
	case "dayOfWeek":
		return now.Weekday().String(), true
	case "dayOfMonth":
		return strconv.Itoa(now.Day()), true
	case "month":
		return strconv.Itoa(int(now.Month())), true
	case "hour":
		return strconv.Itoa(now.Hour()), true
	case "isoDay":
		return strconv.Itoa(isoDay(now)), true
	}

	if env.Weather != nil {
		switch metric {
		case "weatherTemp":
			return formatFloat(env.Weather.Temperature), true
		case "weatherHumidity":
			return formatFloat(env.Weather.Humidity), true
		case "weatherWindSpeed":
			return formatFloat(env.Weather.WindSpeed), true
		case "weatherCondition":
			return env.Weather.Condition, true
		case "weatherCloudCover":
			return formatFloat(env.Weather.CloudCover), true
		}
	}

	if env.DisplayProperties != nil {
		if v, ok := env.DisplayProperties[metric]; ok {
			return v, true
		}
	}

	return "", false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// evalNumeric compares actual and expected as floats.
func evalNumeric(actual, condition, expected string) bool {
	a, err := strconv.ParseFloat(strings.TrimSpace(actual), 64)
	if err != nil {
		return false
	}

	// "in" takes a comma-separated list; each member parses independently.
	if condition == "in" {
		for _, part := range strings.Split(expected, ",") {
			if e, err := strconv.ParseFloat(strings.TrimSpace(part), 64); err == nil && a == e {
				return true
			}
		}
		return false
	}

	e, err := strconv.ParseFloat(strings.TrimSpace(expected), 64)
	if err != nil {
		return false
	}

	switch condition {
	case "equals":
		return a == e
	case "notEquals":
		return a != e
	case "greaterThan":
		return a > e
	case "greaterThanOrEquals":
		return a >= e
	case "lessThan":
		return a < e
	case "lessThanOrEquals":
		return a <= e
	default:
		return false
	}
}

// evalString compares case-insensitively.
func evalString(actual, condition, expected string) bool {
	a := strings.ToLower(strings.TrimSpace(actual))
	e := strings.ToLower(strings.TrimSpace(expected))

	switch condition {
	case "equals":
		return a == e
	case "notEquals":
		return a != e
	case "contains":
		return strings.Contains(a, e)
	case "notContains":
		return !strings.Contains(a, e)
	case "startsWith":
		return strings.HasPrefix(a, e)
	case "endsWith":
		return strings.HasSuffix(a, e)
	case "in":
		for _, part := range strings.Split(e, ",") {
			if strings.TrimSpace(part) == a {
				return true
			}
		}
		return false
	case "greaterThan":
		return a > e
	case "greaterThanOrEquals":
		return a >= e
	case "lessThan":
		return a < e
	case "lessThanOrEquals":
		return a <= e
	default:
		return false
	}
}
