package engagement

import "fmt"

// insightOrder fixes the display order of insights.
var insightOrder = []Signal{
	SignalReturnVisit,
	SignalHighLikeRatio,
	SignalTypePreference,
	SignalLongSession,
	SignalFullCollection,
	SignalBeyondCollection,
	SignalRichInteraction,
	SignalRecentActivity,
	SignalNoPropertiesSeen,
}

var insightText = map[Signal]string{
	SignalReturnVisit:      "Returning visitor",
	SignalHighLikeRatio:    "High like ratio",
	SignalTypePreference:   "Consistent property-type preference",
	SignalLongSession:      "Long browsing session",
	SignalFullCollection:   "Browsed the whole collection",
	SignalBeyondCollection: "Viewed more properties than a typical full session",
	SignalRichInteraction:  "Heavy detail and media interaction",
	SignalRecentActivity:   "Active within the last day",
	SignalNoPropertiesSeen: "Opened the link without viewing properties",
}

// Insights returns human-readable observations derived from the signals that
// fired. The result only depends on the metrics.
func Insights(m Metrics) []string {
	out := make([]string, 0, len(m.Signals))
	for _, sig := range insightOrder {
		if !m.HasSignal(sig) {
			continue
		}
		if sig == SignalTypePreference && m.PreferredType != "" {
			out = append(out, fmt.Sprintf("Consistent preference for %s properties", m.PreferredType))
			continue
		}
		out = append(out, insightText[sig])
	}
	return out
}
