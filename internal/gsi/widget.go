// Package gsi describes the contract with Google Identity Services: the
// global widget the sign-in script installs, the document the script is
// loaded into, and a loader that makes script loading idempotent.
//
// Nothing here looks inside a credential. It is an opaque string produced by
// the widget and handed, unchanged, to whoever registered the callback.
package gsi

// ScriptURL is where the Google Identity Services client is served from.
const ScriptURL = "https://accounts.google.com/gsi/client"

// CredentialResponse is what the widget passes to the registered callback.
type CredentialResponse struct {
	Credential string `json:"credential"`
	SelectBy   string `json:"select_by,omitempty"`
}

// Config is the argument to Widget.Initialize.
type Config struct {
	ClientID string                   `json:"client_id"`
	Callback func(CredentialResponse) `json:"-"`
}

// ButtonOptions controls how the sign-in button renders.
type ButtonOptions struct {
	Type  string `json:"type"`
	Theme string `json:"theme"`
	Size  string `json:"size"`
	Text  string `json:"text"`
	Width string `json:"width"`
}

// DefaultButton is the full-width "Sign in with Google" button.
var DefaultButton = ButtonOptions{
	Type:  "standard",
	Theme: "outline",
	Size:  "large",
	Text:  "signin_with",
	Width: "100%",
}

// Widget is google.accounts.id.
type Widget interface {
	Initialize(cfg Config)
	RenderButton(target string, opts ButtonOptions)
}

// Document is the page the script is loaded into.
type Document interface {
	// HasScript reports whether a script tag with this src is already present.
	HasScript(src string) bool
	// InsertScript appends a script tag. Exactly one of onLoad or onError is
	// eventually called, from any goroutine.
	InsertScript(src string, onLoad, onError func())
}
