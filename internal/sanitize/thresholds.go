package sanitize

// Thresholds are the tuning knobs of the sanitizer. The defaults were picked
// against Sakura 7B output and may need recalibration for other models.
type Thresholds struct {
	// A result longer than HallucinationMinLen runes and HallucinationRatio
	// times the source body is cut at its first sentence.
	HallucinationMinLen int     `toml:"hallucination_min_len" json:"hallucination_min_len"`
	HallucinationRatio  float64 `toml:"hallucination_ratio" json:"hallucination_ratio"`

	// A unit of PhraseMinLen..PhraseMaxLen runes repeated PhraseMinRepeats
	// times or more is cut to PhraseKeep copies.
	PhraseMinLen     int `toml:"phrase_min_len" json:"phrase_min_len"`
	PhraseMaxLen     int `toml:"phrase_max_len" json:"phrase_max_len"`
	PhraseMinRepeats int `toml:"phrase_min_repeats" json:"phrase_min_repeats"`
	PhraseKeep       int `toml:"phrase_keep" json:"phrase_keep"`

	// A unit of any length repeated RunMinRepeats times or more is cut to
	// RunKeep copies.
	RunMinRepeats int `toml:"run_min_repeats" json:"run_min_repeats"`
	RunKeep       int `toml:"run_keep" json:"run_keep"`

	// Trailing orphan numbers of up to TrailingDigitsMax digits are dropped.
	TrailingDigitsMax int `toml:"trailing_digits_max" json:"trailing_digits_max"`
}

// DefaultThresholds returns the tuned defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HallucinationMinLen: 50,
		HallucinationRatio:  5,
		PhraseMinLen:        2,
		PhraseMaxLen:        15,
		PhraseMinRepeats:    3,
		PhraseKeep:          2,
		RunMinRepeats:       5,
		RunKeep:             3,
		TrailingDigitsMax:   2,
	}
}

// WithDefaults fills every non-positive field from DefaultThresholds.
func (t Thresholds) WithDefaults() Thresholds {
	d := DefaultThresholds()
	if t.HallucinationMinLen <= 0 {
		t.HallucinationMinLen = d.HallucinationMinLen
	}
	if t.HallucinationRatio <= 0 {
		t.HallucinationRatio = d.HallucinationRatio
	}
	if t.PhraseMinLen <= 0 {
		t.PhraseMinLen = d.PhraseMinLen
	}
	if t.PhraseMaxLen < t.PhraseMinLen {
		t.PhraseMaxLen = max(d.PhraseMaxLen, t.PhraseMinLen)
	}
	if t.PhraseMinRepeats <= 1 {
		t.PhraseMinRepeats = d.PhraseMinRepeats
	}
	if t.PhraseKeep <= 0 {
		t.PhraseKeep = d.PhraseKeep
	}
	if t.RunMinRepeats <= 1 {
		t.RunMinRepeats = d.RunMinRepeats
	}
	if t.RunKeep <= 0 {
		t.RunKeep = d.RunKeep
	}
	if t.TrailingDigitsMax <= 0 {
		t.TrailingDigitsMax = d.TrailingDigitsMax
	}
	return t
}
