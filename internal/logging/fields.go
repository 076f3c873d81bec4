package logging

// Field name constants for structured logging.
// Using constants prevents typos and enables IDE autocomplete.
const (
	// Common fields.
	FieldError      = "error"
	FieldPath       = "path"
	FieldOutput     = "output"
	FieldWorkingDir = "working_dir"
	FieldDuration   = "duration"
	FieldSize       = "size"
	FieldComponent  = "component"

	// Server fields.
	FieldAddr    = "addr"
	FieldURL     = "url"
	FieldSession = "session"
	FieldPeer    = "peer"

	// Document fields.
	FieldLine       = "line"
	FieldTotalLines = "total_lines"
	FieldChunks     = "chunks"
	FieldPending    = "pending"
	FieldMutations  = "mutations"

	// Edit fields.
	FieldFormat    = "format"
	FieldSelection = "selection"
	FieldMessage   = "message"

	// Export fields.
	FieldBrowser = "browser"

	// Version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
