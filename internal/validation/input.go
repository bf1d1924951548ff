package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MaxOfferMessageLength       = 2000
	MinDisputeDescriptionLength = 10
	MaxDisputeDescriptionLength = 5000
	MaxResolutionLength         = 5000
	MaxNotesLength              = 5000
	MaxDeliverableTitleLength   = 200
	MaxDeliverablesCount        = 50
	MaxExternalLinkLength       = 500
	MaxMilestoneTitleLength     = 200
	MaxRefundReasonLength       = 1000
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateOptionalText проверяет необязательный текст: nil и пустая строка допустимы.
func ValidateOptionalText(fieldName string, value *string, max int) error {
	if value == nil || *value == "" {
		return nil
	}
	return ValidateLength(fieldName, strings.TrimSpace(*value), 0, max)
}

func ValidateOfferMessage(message *string) error {
	return ValidateOptionalText("сообщение", message, MaxOfferMessageLength)
}

func ValidateNotes(notes *string) error {
	return ValidateOptionalText("комментарий", notes, MaxNotesLength)
}

func ValidateRefundReason(reason *string) error {
	return ValidateOptionalText("причина возврата", reason, MaxRefundReasonLength)
}

// ValidateDisputeDescription проверяет описание спора.
func ValidateDisputeDescription(description string) error {
	if err := ValidateNonEmpty("описание спора", description); err != nil {
		return err
	}
	return ValidateLength("описание спора", strings.TrimSpace(description), MinDisputeDescriptionLength, MaxDisputeDescriptionLength)
}

func ValidateResolution(resolution string) error {
	if err := ValidateNonEmpty("решение по спору", resolution); err != nil {
		return err
	}
	return ValidateLength("решение по спору", strings.TrimSpace(resolution), 0, MaxResolutionLength)
}

// Deliverable - результат работы в виде, который приходит от клиента.
type Deliverable struct {
	Title string
	URL   string
}

// ValidateDeliverables проверяет список результатов работ при завершении контракта.
func ValidateDeliverables(items []Deliverable) error {
	if len(items) > MaxDeliverablesCount {
		return fmt.Errorf("количество результатов не может превышать %d", MaxDeliverablesCount)
	}
	for _, item := range items {
		if err := ValidateNonEmpty("название результата", item.Title); err != nil {
			return err
		}
		if err := ValidateLength("название результата", strings.TrimSpace(item.Title), 0, MaxDeliverableTitleLength); err != nil {
			return err
		}
		link := item.URL
		if err := ValidateExternalLink(&link); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMilestoneTitles проверяет названия этапов плана.
func ValidateMilestoneTitles(titles []string) error {
	for _, title := range titles {
		if err := ValidateNonEmpty("название этапа", title); err != nil {
			return err
		}
		if err := ValidateLength("название этапа", strings.TrimSpace(title), 0, MaxMilestoneTitleLength); err != nil {
			return err
		}
	}
	return nil
}

// ValidateExternalLink проверяет внешнюю ссылку.
func ValidateExternalLink(link *string) error {
	if link != nil && *link != "" {
		linkStr := strings.TrimSpace(*link)

		if err := ValidateLength("внешняя ссылка", linkStr, 0, MaxExternalLinkLength); err != nil {
			return err
		}

		parsedURL, err := url.Parse(linkStr)
		if err != nil {
			return fmt.Errorf("некорректный формат URL")
		}

		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("ссылка должна начинаться с http:// или https://")
		}

		if parsedURL.Host == "" {
			return fmt.Errorf("ссылка должна содержать доменное имя")
		}
	}
	return nil
}
