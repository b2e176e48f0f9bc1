// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

package schedule

import "math"

// haversineMeters returns the great-circle distance between two coordinates
// in meters.
func haversineMeters(a, b Location) float64 {
	const earthRadiusM = 6371000.0

	lat1 := a.Latitude * math.Pi / 180.0
	lon1 := a.Longitude * math.Pi / 180.0
	lat2 := b.Latitude * math.Pi / 180.0
	lon2 := b.Longitude * math.Pi / 180.0

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusM * c
}

// insideGeoFence reports whether a geo-aware layout may play. Unknown player
// location admits the layout; a malformed fence also admits it rather than
// suppressing content over a CMS data error.
func insideGeoFence(geoLocation string, playerLocation *Location) bool {
	if playerLocation == nil {
		return true
	}
	fence, ok := ParseGeoFence(geoLocation)
	if !ok {
		return true
	}
	return haversineMeters(fence.Center, *playerLocation) <= fence.RadiusMeters
}
