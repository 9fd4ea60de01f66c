package errors

// Convenience functions for common error patterns

// Config errors

func ConfigInvalid(field, reason string) *PagepressError {
	return New(CategoryConfig, SeverityFatal, "invalid configuration").
		WithContext("field", field).
		WithContext("reason", reason)
}

func ConfigNotFound(path string) *PagepressError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

// Pipeline stage errors. All of these are reported per revision and never
// stop the watch loop.

func CompileFailed(entry string, cause error) *PagepressError {
	return Wrap(cause, CategoryCompile, SeverityError, "compilation failed").
		WithContext("entry", entry)
}

func ExportFailed(cause error) *PagepressError {
	return Wrap(cause, CategoryExport, SeverityError, "theme export failed")
}

func MetadataFailed(stage string, cause error) *PagepressError {
	return Wrap(cause, CategoryMetadata, SeverityError, "metadata extraction failed").
		WithContext("stage", stage)
}

func RenderFailed(cause error) *PagepressError {
	return Wrap(cause, CategoryRender, SeverityError, "page render failed")
}

func TemplateMissing(name string) *PagepressError {
	return New(CategoryRender, SeverityFatal, "template not found").
		WithContext("template", name)
}

func WriteFailed(path string, cause error) *PagepressError {
	return Wrap(cause, CategoryFileSystem, SeverityError, "write failed").
		WithContext("path", path)
}

// Internal errors

func InternalError(message string, cause error) *PagepressError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
