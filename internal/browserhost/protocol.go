package browserhost

import (
	"uniq/cli/internal/gsi"
	"uniq/cli/internal/loginview"
)

// Command types sent from the CLI to the page.
const (
	CmdInsertScript = "insert_script"
	CmdInitialize   = "initialize"
	CmdRenderButton = "render_button"
	CmdToast        = "toast"
	CmdTheme        = "theme"
	CmdState        = "state"
	CmdNavigate     = "navigate"
)

// Event types sent from the page to the CLI.
const (
	EvtScriptLoad  = "script_load"
	EvtScriptError = "script_error"
	EvtCredential  = "credential"
)

// Command is one instruction for the page.
type Command struct {
	Type string `json:"type"`

	Src      string             `json:"src,omitempty"`
	ClientID string             `json:"client_id,omitempty"`
	Target   string             `json:"target,omitempty"`
	Options  *gsi.ButtonOptions `json:"options,omitempty"`

	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`
	Theme   string `json:"theme,omitempty"`

	State *loginview.Snapshot `json:"state,omitempty"`

	Path    string `json:"path,omitempty"`
	URL     string `json:"url,omitempty"`
	Replace bool   `json:"replace,omitempty"`
}

// Event is one report from the page.
type Event struct {
	Type       string `json:"type"`
	Src        string `json:"src,omitempty"`
	Credential string `json:"credential,omitempty"`
	SelectBy   string `json:"select_by,omitempty"`
}
