package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	uciRegex   = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][qrbn]?$`)
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return nil
}

// ValidateSide checks a study side designation
func ValidateSide(side string) error {
	if side != "white" && side != "black" {
		return ValidationError{Field: "side", Message: "side must be white or black"}
	}
	return nil
}

// ValidateUCI checks that a move is in coordinate notation,
// e.g. e2e4 or e7e8q.
func ValidateUCI(uci string) error {
	if uci == "" {
		return ValidationError{Field: "uci", Message: "move is required"}
	}
	if !uciRegex.MatchString(uci) {
		return ValidationError{Field: "uci", Message: "invalid coordinate move"}
	}
	return nil
}

// ValidateFEN performs a structural check on a FEN string: six fields,
// eight ranks, a valid side to move. Full legality is left to the
// rules engine when the position is actually loaded.
func ValidateFEN(fen string) error {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return ValidationError{Field: "fen", Message: "fen is required"}
	}
	fields := strings.Fields(fen)
	if len(fields) != 6 {
		return ValidationError{Field: "fen", Message: "fen must have 6 fields"}
	}
	if ranks := strings.Split(fields[0], "/"); len(ranks) != 8 {
		return ValidationError{Field: "fen", Message: "fen must have 8 ranks"}
	}
	if fields[1] != "w" && fields[1] != "b" {
		return ValidationError{Field: "fen", Message: "side to move must be w or b"}
	}
	return nil
}
