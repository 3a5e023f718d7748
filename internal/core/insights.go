package core

// insightCatalog describes what each simulated action contributes to sender reputation.
// The order is the order Insights returns.
var insightCatalog = []Insight{
	{
		Key:         "sender_history",
		Title:       "Consistent sending history",
		Description: "Regular low-volume sends show mailbox providers a steady, predictable sender.",
	},
	{
		Key:         "spam_feedback",
		Title:       "Positive spam feedback",
		Description: "Moving messages out of spam teaches filters that the sender is wanted.",
	},
	{
		Key:         "engagement",
		Title:       "Open engagement",
		Description: "Opened messages are one of the strongest positive signals providers track.",
	},
	{
		Key:         "priority",
		Title:       "Priority labelling",
		Description: "Messages flagged as important raise the sender's standing with the recipient's provider.",
	},
	{
		Key:         "conversations",
		Title:       "Two-way conversations",
		Description: "Replies turn one-way sends into threads, which providers weight heavily.",
	},
}

var insightIndex = func() map[string]Insight {
	idx := make(map[string]Insight, len(insightCatalog))
	for _, insight := range insightCatalog {
		idx[insight.Key] = insight
	}
	return idx
}()

// stepInsights maps each engagement step to the catalog entries it illustrates
var stepInsights = map[string][]string{
	StepSendTestEmail:   {"sender_history"},
	StepMarkAsNonSpam:   {"spam_feedback"},
	StepOpenEmail:       {"engagement"},
	StepMarkAsImportant: {"priority"},
	StepReplyToEmail:    {"conversations"},
	StepMaybeReply:      {"conversations", "engagement"},
}

// Insights returns a copy of the benefit catalog
func Insights() []Insight {
	out := make([]Insight, len(insightCatalog))
	copy(out, insightCatalog)
	return out
}

// InsightsFor returns the catalog entries attached to a step, in catalog lookup order.
// Unknown keys are ignored.
func InsightsFor(step string) []Insight {
	keys := stepInsights[step]
	out := make([]Insight, 0, len(keys))
	for _, key := range keys {
		if insight, ok := insightIndex[key]; ok {
			out = append(out, insight)
		}
	}
	return out
}
