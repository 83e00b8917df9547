package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// Максимальная длина ввода, который ещё может быть паспортом (до нормализации)
	MaxPassportInputLength = 12

	MaxContractIDLength = 140
)

// Серия паспорта: 2 латинские буквы + 7 цифр
var passportRegex = regexp.MustCompile(`^[A-Z]{2}[0-9]{7}$`)

// NormalizePassport убирает пробелы по краям и внутри, приводит к верхнему регистру
func NormalizePassport(raw string) string {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, upper)
}

// IsValidPassport проверяет строку после нормализации
func IsValidPassport(raw string) bool {
	return passportRegex.MatchString(NormalizePassport(raw))
}

// ValidatePassport возвращает нормализованную серию или ошибку формата
func ValidatePassport(raw string) (string, error) {
	normalized := NormalizePassport(raw)
	if !passportRegex.MatchString(normalized) {
		return "", fmt.Errorf("passport %q does not match AA1234567", raw)
	}
	return normalized, nil
}

// IsPlausiblePassportInput отсекает длинные сообщения, которые точно не паспорт
func IsPlausiblePassportInput(raw string) bool {
	return utf8.RuneCountInString(raw) <= MaxPassportInputLength
}

// ValidateContractID проверяет идентификатор договора из callback-данных
func ValidateContractID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("contract id cannot be empty")
	}
	if len(id) > MaxContractIDLength {
		return fmt.Errorf("contract id cannot exceed %d characters", MaxContractIDLength)
	}
	return nil
}
