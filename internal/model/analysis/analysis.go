package analysis

import "encoding/json"

// GeneralConcern is the provenance sentinel for red flags that are not backed
// by a specific passage from the knowledge base.
const GeneralConcern = "General Concern"

// RedFlag points at a clause in the user's document that deserves attention.
// ClauseText is expected to be a verbatim excerpt from the source document.
type RedFlag struct {
	ClauseText    string `json:"clause_text"`
	Concern       string `json:"concern"`
	ContextSource string `json:"context_source"`
}

// Analysis is the structured output contract of the analyzer model.
type Analysis struct {
	Summary  string    `json:"summary"`
	RedFlags []RedFlag `json:"red_flags"`
}

// Degraded preserves an analyzer response that could not be decoded into the
// Analysis contract. The user still receives a summary; the raw model text is
// kept for diagnosis instead of being thrown away.
type Degraded struct {
	Summary string `json:"summary"`
	Raw     string `json:"raw"`
}

// Result holds either a decoded Analysis or a Degraded payload, never both.
type Result struct {
	Analysis *Analysis
	Degraded *Degraded
}

// Summary returns the user-facing summary regardless of which variant is set.
func (r Result) Summary() string {
	switch {
	case r.Analysis != nil:
		return r.Analysis.Summary
	case r.Degraded != nil:
		return r.Degraded.Summary
	}
	return ""
}

// IsDegraded reports whether the analyzer output failed to decode.
func (r Result) IsDegraded() bool {
	return r.Degraded != nil
}

// MarshalJSON emits the variant that is set so cached records and HTTP
// responses carry the same shape the analyzer contract defines.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Degraded != nil {
		return json.Marshal(r.Degraded)
	}
	if r.Analysis != nil {
		return json.Marshal(r.Analysis)
	}
	return []byte("null"), nil
}

// UnmarshalJSON restores a Result from a cached record. The degraded variant
// is recognized by the presence of its raw field.
func (r *Result) UnmarshalJSON(data []byte) error {
	var probe struct {
		Raw *string `json:"raw"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Raw != nil {
		r.Degraded = &Degraded{}
		r.Analysis = nil
		return json.Unmarshal(data, r.Degraded)
	}
	r.Analysis = &Analysis{}
	r.Degraded = nil
	return json.Unmarshal(data, r.Analysis)
}
