package model

// RelayCommand is a command payload received from the cloud channel or
// posted to /remote_command. Field names match the cloud wire format.
type RelayCommand struct {
	Command CommandKind `json:"command" validate:"required"`

	// print command: exactly one of STLPath / GCodePath references the
	// artifact to download. The *File fields override the local filename.
	STLPath   string `json:"stl_path,omitempty"`
	GCodePath string `json:"gcode_path,omitempty"`
	STLFile   string `json:"stl_file,omitempty"`
	GCodeFile string `json:"gcode_file,omitempty"`
	IniFile   string `json:"ini_file,omitempty"`
}
