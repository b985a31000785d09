package domain

import "go.trai.ch/zerr"

var (
	// ErrParse is returned when an input document is not well-formed YAML.
	ErrParse = zerr.New("failed to parse document")

	// ErrTypeMismatch is returned when a parameter override does not match the declared type.
	ErrTypeMismatch = zerr.New("parameter value does not match declared type")

	// ErrUnknownParameter is returned when a supplied parameter has no matching declaration.
	ErrUnknownParameter = zerr.New("unknown parameter")

	// ErrInvalidParameterType is returned when a declaration uses an unsupported type name.
	ErrInvalidParameterType = zerr.New("invalid parameter type")

	// ErrMissingParameterName is returned when a parameter declaration has no name.
	ErrMissingParameterName = zerr.New("parameter declaration is missing a name")

	// ErrDuplicateParameter is returned when two declarations in one scope share a name.
	ErrDuplicateParameter = zerr.New("duplicate parameter declaration")

	// ErrMissingParameterValue is returned when a parameter without a default
	// receives no override.
	ErrMissingParameterValue = zerr.New("parameter has no default and no supplied value")

	// ErrUndefinedVariable is returned when a condition references a context variable
	// that is absent from the snapshot.
	ErrUndefinedVariable = zerr.New("undefined context variable")

	// ErrExpressionSyntax is returned when a ${{ }} expression cannot be parsed.
	ErrExpressionSyntax = zerr.New("invalid expression")

	// ErrInvalidCondition is returned when a condition does not evaluate to a boolean.
	ErrInvalidCondition = zerr.New("condition is not a boolean expression")

	// ErrCyclicTemplate is returned when a template transitively references itself.
	ErrCyclicTemplate = zerr.New("cyclic template reference")

	// ErrMaxDepthExceeded is returned when template nesting exceeds the depth limit.
	ErrMaxDepthExceeded = zerr.New("template nesting exceeds maximum depth")

	// ErrTemplateFetch is returned when the document store fails to provide a template.
	ErrTemplateFetch = zerr.New("failed to fetch template")

	// ErrDocumentNotFound is returned when a referenced document does not exist.
	ErrDocumentNotFound = zerr.New("document not found")

	// ErrInvalidTemplateReference is returned when a template reference is malformed.
	ErrInvalidTemplateReference = zerr.New("invalid template reference")

	// ErrInvalidMatrix is returned when a matrix strategy is malformed, including
	// cases that do not all declare the same axis set.
	ErrInvalidMatrix = zerr.New("invalid matrix strategy")

	// ErrMissingAxisValue is returned when the job body references an axis that no
	// case of the strategy provides.
	ErrMissingAxisValue = zerr.New("axis referenced in job body has no value in any case")

	// ErrInvalidPipeline is returned when the root document does not describe a pipeline.
	ErrInvalidPipeline = zerr.New("invalid pipeline document")

	// ErrRenderFailed is returned when the resolved plan cannot be rendered.
	ErrRenderFailed = zerr.New("failed to render plan")

	// ErrInvalidOverride is returned when a CLI override is not in key=value form.
	ErrInvalidOverride = zerr.New("invalid override, expected key=value")

	// ErrNoPipelineSpecified is returned when the render command is given no document.
	ErrNoPipelineSpecified = zerr.New("no pipeline document specified")

	// ErrWatchFailed is returned when the file watcher cannot be started.
	ErrWatchFailed = zerr.New("failed to watch pipeline documents")
)
