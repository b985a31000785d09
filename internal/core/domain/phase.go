package domain

// Phase tracks how far a resolution run has progressed. Any failure in an
// intermediate phase aborts the whole run; only Finalized yields output.
type Phase string

const (
	// PhaseLoaded means the root document has been parsed.
	PhaseLoaded Phase = "Loaded"
	// PhaseParametersResolved means effective parameters have been computed.
	PhaseParametersResolved Phase = "ParametersResolved"
	// PhaseTemplatesExpanded means all template references have been inlined.
	PhaseTemplatesExpanded Phase = "TemplatesExpanded"
	// PhaseConditionsEvaluated means guarded branches have been kept or pruned.
	PhaseConditionsEvaluated Phase = "ConditionsEvaluated"
	// PhaseMatrixExpanded means matrix strategies have been expanded into jobs.
	PhaseMatrixExpanded Phase = "MatrixExpanded"
	// PhaseFinalized means the immutable plan has been produced.
	PhaseFinalized Phase = "Finalized"
)
