package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies one day or month generation run.
	FieldRunID = "run_id"
	// FieldDate is the content date (YYYY-MM-DD) being generated.
	FieldDate = "date"
	// FieldMode is the content mode (devotional or affirmation).
	FieldMode = "mode"
	// FieldCode is the translation/voice code being processed.
	FieldCode = "code"
	// FieldStep is the pipeline step name.
	FieldStep = "step"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next action for an operator.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries services.Classify output.
	FieldErrorKind = "error_kind"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)
