//go:build dev

package auth

const devBypassEnabled = true
