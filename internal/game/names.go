package game

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var nameFolder = cases.Fold()

// foldName produces the canonical key for account and commander names so
// uniqueness holds across Unicode case variants.
func foldName(name string) string {
	return nameFolder.String(strings.TrimSpace(name))
}

var displayCaser = cases.Title(language.English, cases.NoLower)

// displayName trims a raw name for presentation without altering the
// player's chosen casing beyond leading capitalization of ASCII lowercase.
func displayName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return trimmed
	}
	if trimmed == strings.ToLower(trimmed) {
		return displayCaser.String(trimmed)
	}
	return trimmed
}

const reservedCommanderName = "ACCOUNT"

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.ContainsAny(trimmed, " \t\r\n") {
		return fmt.Errorf("name cannot contain spaces")
	}
	if len(trimmed) > 24 {
		return fmt.Errorf("name must be 24 characters or fewer")
	}
	if strings.EqualFold(trimmed, reservedCommanderName) {
		return fmt.Errorf("that name is reserved")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be blank")
	}
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	return nil
}
