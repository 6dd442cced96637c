// Package address parses the free-form sender strings found in message
// headers ("Jane Doe <jane@acmeco.com>", "billing@vendor.com") into their
// display-name and address parts.
package address

import (
	"net/mail"
	"regexp"
	"strings"
)

var bareAddressPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// Sender holds the parsed parts of a sender header value. Email, Local and
// Domain are empty when no address could be resolved.
type Sender struct {
	Name   string
	Email  string
	Local  string
	Domain string
}

// Parse extracts the display name and address from a sender string. It
// tolerates bare addresses and malformed headers; a sender with no
// resolvable address yields only the raw string as Name.
func Parse(raw string) Sender {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Sender{}
	}

	if addr, err := mail.ParseAddress(raw); err == nil {
		return fromParts(addr.Name, addr.Address)
	}

	if match := bareAddressPattern.FindString(raw); match != "" {
		name := strings.Trim(strings.Replace(raw, match, "", 1), " <>\"")
		return fromParts(name, match)
	}

	return Sender{Name: raw}
}

// FirstName returns the first token of the display name, or "" when no
// usable name exists.
func (s Sender) FirstName() string {
	if fields := strings.Fields(s.Name); len(fields) > 0 {
		return strings.Trim(fields[0], ",.\"")
	}
	return ""
}

func fromParts(name, email string) Sender {
	s := Sender{
		Name:  strings.TrimSpace(name),
		Email: strings.ToLower(strings.TrimSpace(email)),
	}
	if at := strings.LastIndex(s.Email, "@"); at > 0 {
		s.Local = s.Email[:at]
		s.Domain = s.Email[at+1:]
	}
	return s
}
