//go:build !dev

package auth

const devBypassEnabled = false
