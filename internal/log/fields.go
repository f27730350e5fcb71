package log

// FieldComponent tags every record with the emitting component.
const FieldComponent = "component"

// Component names used when constructing loggers.
const (
	ComponentApp     = "app"
	ComponentBackend = "backend"
	ComponentWorker  = "worker"
)
