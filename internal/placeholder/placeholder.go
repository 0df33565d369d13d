// Package placeholder turns a resource key into readable placeholder text.
//
// Values come from an ordered rule chain: the first rule whose Match accepts
// the key produces the value, and the last rule accepts every key. The chain
// is a heuristic; generated text is meant to be reviewed by hand. Its order is
// part of the output format, since existing tables already contain values
// produced by it.
package placeholder

import (
	"regexp"
	"strings"
)

// WellKnown maps common keys to hand-written phrases.
var WellKnown = map[string]string{
	"ValidationInProgress": "Validating license key...",
	"LicenseActivated":     "License activated successfully",
	"LicenseDeactivated":   "License deactivated",
	"InvalidLicenseKey":    "Invalid license key",
	"LicenseExpired":       "License has expired",
	"KeyGenerationFailed":  "Failed to generate key",
	"KeyGenerationSuccess": "Key generated successfully",
	"ActivationFailed":     "License activation failed",
	"DeactivationFailed":   "License deactivation failed",
	"PleaseEnterValidKey":  "Please enter a valid license key",
	"LicenseKeyEmpty":      "License key cannot be empty",
	"FeatureNotAvailable":  "This feature is not available",
	"AccessDenied":         "Access denied",
	"Error":                "Error",
	"Warning":              "Warning",
	"Info":                 "Information",
	"Success":              "Success",
}

// Rule is one step of the chain.
type Rule struct {
	Name  string
	Match func(key string) bool
	Apply func(key string) string
}

// Synthesizer produces placeholder values for missing keys.
type Synthesizer struct {
	known map[string]string
	rules []Rule
}

// New creates a Synthesizer. Entries in overrides replace or extend WellKnown.
func New(overrides map[string]string) *Synthesizer {
	known := make(map[string]string, len(WellKnown)+len(overrides))
	for k, v := range WellKnown {
		known[k] = v
	}
	for k, v := range overrides {
		known[k] = v
	}

	s := &Synthesizer{known: known}
	s.rules = append([]Rule{{
		Name: "known",
		Match: func(key string) bool {
			_, ok := s.known[key]
			return ok
		},
		Apply: func(key string) string { return s.known[key] },
	}}, heuristicRules...)
	return s
}

// Value returns the placeholder for key.
func (s *Synthesizer) Value(key string) string {
	v, _ := s.Explain(key)
	return v
}

// Explain returns the placeholder for key and the name of the rule that produced it.
func (s *Synthesizer) Explain(key string) (string, string) {
	for _, r := range s.rules {
		if r.Match(key) {
			return r.Apply(key), r.Name
		}
	}
	// unreachable: the last rule matches everything
	return key, ""
}

// Rules returns the names of the chain in evaluation order.
func (s *Synthesizer) Rules() []string {
	names := make([]string, len(s.rules))
	for i, r := range s.rules {
		names[i] = r.Name
	}
	return names
}

var heuristicRules = []Rule{
	{
		Name:  "error",
		Match: containsAny("Error", "Failed"),
		Apply: func(key string) string {
			return "Error: " + strip(key, "Error", "Failed", "Message")
		},
	},
	{
		Name:  "success",
		Match: containsAny("Success", "Successfully"),
		Apply: func(key string) string {
			return strip(key, "Success", "Successfully") + " completed successfully"
		},
	},
	{
		Name:  "confirm",
		Match: containsAny("Confirm"),
		Apply: func(key string) string {
			return "Please confirm " + strings.ToLower(strip(key, "Confirm"))
		},
	},
	{
		Name:  "message",
		Match: containsAny("Message"),
		Apply: func(key string) string {
			return strings.ReplaceAll(strip(key, "Message"), "Error", "Error: ")
		},
	},
	{
		Name:  "title",
		Match: hasSuffix("Title"),
		Apply: func(key string) string { return strip(key, "Title") },
	},
	{
		Name:  "label",
		Match: hasSuffix("Label"),
		Apply: func(key string) string { return strip(key, "Label") },
	},
	{
		Name:  "words",
		Match: func(string) bool { return true },
		Apply: splitWords,
	},
}

func containsAny(subs ...string) func(string) bool {
	return func(key string) bool {
		for _, sub := range subs {
			if strings.Contains(key, sub) {
				return true
			}
		}
		return false
	}
}

func hasSuffix(suffix string) func(string) bool {
	return func(key string) bool { return strings.HasSuffix(key, suffix) }
}

// strip removes every occurrence of each marker, in order.
func strip(key string, markers ...string) string {
	for _, m := range markers {
		key = strings.ReplaceAll(key, m, "")
	}
	return key
}

var upperASCII = regexp.MustCompile(`([A-Z])`)

// splitWords puts a space before every capital letter and normalises spacing.
func splitWords(key string) string {
	spaced := upperASCII.ReplaceAllString(key, " $1")
	return strings.Join(strings.Fields(spaced), " ")
}
