// Package model defines the core domain types shared across the application.
package model

import "strings"

// Account holds the credentials for one site account.
// Identity for stats purposes is the email address.
type Account struct {
	Name   string `json:"name" mapstructure:"name"`
	Email  string `json:"email" mapstructure:"email"`
	Passwd string `json:"passwd" mapstructure:"passwd"`
}

// DisplayName derives the reporting name from the email: the local part
// joined to the first label of the domain, e.g. "alice@example.com" →
// "alice_example".
func (a Account) DisplayName() string {
	local, domain, ok := strings.Cut(a.Email, "@")
	if !ok {
		return a.Email
	}
	label, _, _ := strings.Cut(domain, ".")
	return local + "_" + label
}

// MaskedEmail returns the email with the middle replaced by "****",
// keeping the first and last two characters. Short strings are returned
// unchanged.
func (a Account) MaskedEmail() string {
	return maskString(a.Email, 2, 2)
}

func maskString(s string, visibleStart, visibleEnd int) string {
	if s == "" {
		return ""
	}
	if len(s) <= visibleStart+visibleEnd {
		return s
	}
	return s[:visibleStart] + "****" + s[len(s)-visibleEnd:]
}
