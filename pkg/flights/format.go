// Copyright Remmie Authors
// SPDX-License-Identifier: Apache-2.0

package flights

import (
	"fmt"
	"strings"
)

const (
	noOffersMessage = "Sorry, I couldn't find any flight offers for your trip."
	maxFormatted    = 5
)

// FormatOffers renders flight offers as a human-friendly text summary, at
// most five offers. The text goes back to the assistant verbatim, so it
// must read well without further processing.
func FormatOffers(resp *OffersResponse) string {
	if resp == nil || len(resp.Data) == 0 {
		return noOffersMessage
	}

	var sb strings.Builder
	sb.WriteString("Here are some flight options for you:\n\n")

	count := 0
	for _, offer := range resp.Data {
		if count == maxFormatted {
			break
		}
		if len(offer.Itineraries) == 0 || len(offer.Itineraries[0].Segments) == 0 {
			continue
		}

		outbound := offer.Itineraries[0]
		first := outbound.Segments[0]
		last := outbound.Segments[len(outbound.Segments)-1]

		layovers := len(outbound.Segments) - 1
		layoverInfo := " (direct flight)"
		if layovers > 0 {
			layoverInfo = fmt.Sprintf(" with %d layover(s)", layovers)
		}

		fmt.Fprintf(&sb, "✈️ %s → %s on %s\n", first.Departure.IataCode, last.Arrival.IataCode, departureDay(first.Departure.At))
		fmt.Fprintf(&sb, "Duration: %s%s\n", humanDuration(outbound.Duration), layoverInfo)
		fmt.Fprintf(&sb, "Price: %s %s\n", offer.Price.GrandTotal, offer.Price.Currency)
		sb.WriteString(strings.Repeat("-", 30) + "\n")
		count++
	}

	if count == 0 {
		return noOffersMessage
	}
	return sb.String()
}

// departureDay trims a local timestamp to its date part.
func departureDay(at string) string {
	if i := strings.IndexByte(at, 'T'); i >= 0 {
		return at[:i]
	}
	return at
}

// humanDuration lowercases an ISO 8601 duration and drops the PT prefix,
// turning "PT7H30M" into "7h30m".
func humanDuration(iso string) string {
	return strings.ToLower(strings.TrimPrefix(iso, "PT"))
}
