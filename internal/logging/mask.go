// Copyright (c) 2026 UniQ Labs
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package logging provides the CLI's structured logger and utilities for
// secure logging and error presentation.
//
// Anything that might carry a password, a session cookie or an identity
// credential goes through Mask before it is written out.
package logging

import (
	"regexp"
)

var (
	rePassword   = regexp.MustCompile(`(?i)("?password"?\s*[=:]\s*"?)([^\s;",}]+)`)
	reToken      = regexp.MustCompile(`(?i)(token=|bearer\s+)([A-Za-z0-9._-]+)`)
	reCredential = regexp.MustCompile(`(?i)("?credential"?\s*[=:]\s*"?)([^\s;",}]+)`)
	reCookie     = regexp.MustCompile(`(?i)((?:set-)?cookie:\s*[^=;\s]+=)([^;\s]+)`)
	reURLPass    = regexp.MustCompile(`(?i)(://)([^:/@]+):([^@/]+)(@)`)
)

// Mask replaces sensitive values in the input string with "***".
// For URLs with userinfo, both username and password are masked.
func Mask(s string) string {
	out := s
	out = rePassword.ReplaceAllString(out, "${1}***")
	out = reToken.ReplaceAllString(out, "${1}***")
	out = reCredential.ReplaceAllString(out, "${1}***")
	out = reCookie.ReplaceAllString(out, "${1}***")
	out = reURLPass.ReplaceAllString(out, "$1*:*$4")
	return out
}
