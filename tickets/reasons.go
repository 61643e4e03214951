package tickets

import "strings"

const ReasonOther = "other"

type Reason struct {
	Key   string
	Label string
	Steps []string
}

var reasons = []Reason{
	{
		Key:   "harassment",
		Label: "Harassment or Abuse",
		Steps: []string{
			"Right-click (or tap and hold) the message.",
			`Select **"Report Message"**.`,
			`Go to **"Abuse or harassment"**.`,
			"Follow the on-screen prompts to complete the report.",
		},
	},
	{
		Key:   "spam",
		Label: "Spam or Phishing",
		Steps: []string{
			"Right-click (or tap and hold) the message.",
			`Select **"Report Message"**.`,
			`Go to **"Spam"**, or **"Something else" → "Impersonation, scam, or fraud"** OR **"Hacks, cheats, phishing or malicious links"**.`,
			"Follow the on-screen prompts to complete the report.",
		},
	},
	{
		Key:   "child-endangerment",
		Label: "Child Endangerment / Online Dating",
		Steps: []string{
			"Right-click (or tap and hold) the message.",
			`Select **"Report Message"**.`,
			`Go to **"Abuse or harassment" → "Content targeting or involving a minor"**.`,
			"Follow the on-screen prompts to complete the report.",
			"🚨 If possible, contact emergency help local to the reported user immediately.",
		},
	},
	{
		Key:   "impersonation",
		Label: "Impersonation or Scamming",
		Steps: []string{
			"Right-click (or tap and hold) the message.",
			`Select **"Report Message"**.`,
			`Go to **"Something else" → "Impersonation, scam, or fraud"**.`,
			"Follow the on-screen prompts to complete the report.",
		},
	},
	{
		Key:   "self-harm",
		Label: "Self-Harm or Suicidal Intent",
		Steps: []string{
			"Right-click (or tap and hold) the message.",
			`Select **"Report Message"**.`,
			`Go to **"Something else" → "It mentions self-harm or suicide"**.`,
			"Follow the on-screen prompts to complete the report.",
			"🚨 If possible, contact emergency help local to the reported user immediately.",
		},
	},
	{
		Key:   ReasonOther,
		Label: "Other (custom reason)",
		Steps: []string{
			"Right-click (or tap and hold) the message.",
			`Select **"Report Message"**.`,
			"Follow the on-screen prompts to complete the report.",
		},
	},
}

// Reasons returns the selectable report reasons in menu order.
func Reasons() []Reason {
	out := make([]Reason, len(reasons))
	copy(out, reasons)
	return out
}

// LookupReason finds a reason by key. Unknown keys resolve to "other".
func LookupReason(key string) (Reason, bool) {
	for _, r := range reasons {
		if r.Key == key {
			return r, true
		}
	}
	return reasons[len(reasons)-1], false
}

// Guide renders the in-app reporting steps for a reason as a bullet list.
func (r Reason) Guide() string {
	lines := make([]string, len(r.Steps))
	for idx, s := range r.Steps {
		lines[idx] = "• " + s
	}
	return strings.Join(lines, "\n")
}
