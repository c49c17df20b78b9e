package file

// ReadFileRequest reads a file, optionally restricted to a line range.
// EndLine of -1 (the default) means "to the end of the file".
type ReadFileRequest struct {
	Path      string `mapstructure:"path"`
	StartLine int    `mapstructure:"start_line"`
	EndLine   int    `mapstructure:"end_line"`
}

// Validate applies defaults and checks the range.
func (r *ReadFileRequest) Validate() error {
	if r.Path == "" {
		return &MissingArgumentError{Argument: "path"}
	}
	if r.StartLine == 0 {
		r.StartLine = 1
	}
	if r.EndLine == 0 {
		r.EndLine = -1
	}
	if r.StartLine < 1 {
		return &InvalidRangeError{Reason: "start_line must be >= 1"}
	}
	if r.EndLine != -1 && r.EndLine < r.StartLine {
		return &InvalidRangeError{Reason: "end_line must be -1 or >= start_line"}
	}
	return nil
}

// ReadFileResponse carries the selected content and line accounting.
type ReadFileResponse struct {
	Content    string `json:"content"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	TotalLines int    `json:"total_lines"`
}

// WriteFileRequest overwrites (or creates) a file with content.
type WriteFileRequest struct {
	Path    string `mapstructure:"path"`
	Content string `mapstructure:"content"`
}

func (r *WriteFileRequest) Validate() error {
	if r.Path == "" {
		return &MissingArgumentError{Argument: "path"}
	}
	return nil
}

// WriteFileResponse reports what was written.
type WriteFileResponse struct {
	Path         string `json:"path"`
	LinesWritten int    `json:"lines_written"`
}

// InsertTextRequest inserts content before the given 1-based line number.
// A line number one past the last line appends.
type InsertTextRequest struct {
	Path       string `mapstructure:"path"`
	LineNumber int    `mapstructure:"line_number"`
	Content    string `mapstructure:"content"`
}

func (r *InsertTextRequest) Validate() error {
	if r.Path == "" {
		return &MissingArgumentError{Argument: "path"}
	}
	if r.LineNumber < 1 {
		return &InvalidRangeError{Reason: "line_number must be >= 1"}
	}
	return nil
}

// InsertTextResponse reports where the insertion landed.
type InsertTextResponse struct {
	Path          string `json:"path"`
	LineNumber    int    `json:"line_number"`
	LinesInserted int    `json:"lines_inserted"`
}
