package tier

import "github.com/Skufu/leukovision/internal/classifier"

// Severity controls how a tier is rendered.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

const (
	LabelLow       = "Low"
	LabelModerate  = "Moderate"
	LabelHigh      = "High"
	LabelConfirmed = "Confirmed"
	LabelUnknown   = "Unknown"
)

type Tier struct {
	Class    classifier.RiskClass
	Label    string
	Severity Severity
	Guidance string
}

// Known reports whether the class was one the model is expected to emit.
func (t Tier) Known() bool {
	return t.Label != LabelUnknown
}

var tiers = map[classifier.RiskClass]Tier{
	0: {
		Label:    LabelLow,
		Severity: SeveritySuccess,
		Guidance: "Your risk level is Low. Maintain a healthy lifestyle and routine checkups.",
	},
	1: {
		Label:    LabelModerate,
		Severity: SeverityInfo,
		Guidance: "Your risk level is Moderate. We recommend scheduling a visit with a general physician and keeping an eye on symptoms.",
	},
	2: {
		Label:    LabelHigh,
		Severity: SeverityWarning,
		Guidance: "Your risk level is High. Please consult a hematologist or oncologist as soon as possible for further medical evaluation.",
	},
	3: {
		Label:    LabelConfirmed,
		Severity: SeverityError,
		Guidance: "Leukemia risk is Confirmed. This is a critical situation. We strongly advise seeing a specialist urgently for immediate medical tests and care.",
	},
}

var unknown = Tier{
	Label:    LabelUnknown,
	Severity: SeverityError,
	Guidance: "An unexpected issue occurred. Please try again or consult a medical expert.",
}

// Map returns the tier for a class. Classes outside 0..3 get the Unknown tier.
func Map(class classifier.RiskClass) Tier {
	t, ok := tiers[class]
	if !ok {
		t = unknown
	}
	t.Class = class
	return t
}

// Labels returns every label Map can produce, Unknown last.
func Labels() []string {
	return []string{LabelLow, LabelModerate, LabelHigh, LabelConfirmed, LabelUnknown}
}
