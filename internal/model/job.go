package model

// PrinterEndpoint describes the one printer this process drives. It is
// established at startup (from config or discovery) and never mutated
// afterwards, so it may be shared freely across goroutines.
type PrinterEndpoint struct {
	Address string      `json:"address"`
	Kind    BackendKind `json:"backend_kind"`
	APIKey  string      `json:"-"` // OctoPrint only, optional
}

// JobRequest is one attempt to get a file uploaded and printing. It is
// built per request and discarded once the attempt resolves.
type JobRequest struct {
	SourcePath      string
	SourceKind      SourceKind
	SliceConfigPath string // empty means the configured default
}

// PrintRequest is the body of POST /print.
type PrintRequest struct {
	FilePath   string `json:"file_path" validate:"required"`
	ConfigPath string `json:"config_path,omitempty"`
}

// PrintResponse is returned once a job has been uploaded and started.
type PrintResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
}

// StopResponse is returned by POST /stop and remote stop commands.
type StopResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
