package domain

import "fmt"

// ConfigError reports an unrecoverable precondition failure: a missing
// boundary-year directory, or an output path that cannot be created. It is
// always raised before any partial output exists.
type ConfigError struct {
	Path   string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("configuration: %s", e.Reason)
	}
	return fmt.Sprintf("configuration: %s: %s", e.Path, e.Reason)
}

// DataSourceError reports an unreadable or malformed input snapshot. The path
// identifies the offending file so a batch failure stays attributable.
type DataSourceError struct {
	Path string
	Err  error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("sst source %s: %v", e.Path, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// SchemaError reports a forcing-writer request that contradicts the declared
// file schema, such as a variable on an undeclared dimension.
type SchemaError struct {
	Variable string
	Reason   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: variable %q: %s", e.Variable, e.Reason)
}

// InterpError reports a degenerate source grid that cannot be interpolated.
type InterpError struct {
	Reason string
}

func (e *InterpError) Error() string {
	return fmt.Sprintf("interpolation: %s", e.Reason)
}
