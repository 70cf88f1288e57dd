package config

import "testing"

func TestValidateRejectsUnknownAlgorithm(t *testing.T) {
	c := &Config{Algorithm: "deep_cfr", CurrentRound: "river"}
	if err := c.Validate(); err == nil {
		t.Error("Validate() = nil, want error for an unsupported algorithm")
	}
}

func TestValidateRejectsUnknownRound(t *testing.T) {
	c := &Config{Algorithm: "discounted_cfr", CurrentRound: "showdown"}
	if err := c.Validate(); err == nil {
		t.Error("Validate() = nil, want error for an unknown current_round")
	}
}

func TestValidateRejectsNegativeAccuracy(t *testing.T) {
	c := &Config{Algorithm: "discounted_cfr", CurrentRound: "river", Accuracy: -0.5}
	if err := c.Validate(); err == nil {
		t.Error("Validate() = nil, want error for a negative accuracy")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	c := &Config{Algorithm: "discounted_cfr", CurrentRound: "river", Accuracy: 0.01}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestParseRoundIsCaseInsensitive(t *testing.T) {
	cases := map[string]bool{"preflop": true, "FLOP": true, "Turn": true, "river": true, "RIVER": true}
	for s := range cases {
		if _, err := ParseRound(s); err != nil {
			t.Errorf("ParseRound(%q) = %v, want no error", s, err)
		}
	}
}

func TestParseRoundRejectsUnknown(t *testing.T) {
	if _, err := ParseRound("postflop"); err == nil {
		t.Error("ParseRound(\"postflop\") = nil, want error")
	}
}
