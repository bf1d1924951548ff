package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestValidateDisputeDescription(t *testing.T) {
	assert.Error(t, ValidateDisputeDescription("   "))
	assert.Error(t, ValidateDisputeDescription("коротко"))
	assert.Error(t, ValidateDisputeDescription(strings.Repeat("а", MaxDisputeDescriptionLength+1)))
	assert.NoError(t, ValidateDisputeDescription("Исполнитель не сдал работу в срок"))
}

func TestValidateOptionalText(t *testing.T) {
	assert.NoError(t, ValidateOfferMessage(nil))
	assert.NoError(t, ValidateOfferMessage(strPtr("")))
	assert.NoError(t, ValidateNotes(strPtr("готово")))
	assert.Error(t, ValidateOfferMessage(strPtr(strings.Repeat("x", MaxOfferMessageLength+1))))
}

func TestValidateDeliverables(t *testing.T) {
	assert.NoError(t, ValidateDeliverables(nil))
	assert.NoError(t, ValidateDeliverables([]Deliverable{{Title: "API", URL: "https://example.com/pr/1"}, {Title: "Docs"}}))
	assert.Error(t, ValidateDeliverables([]Deliverable{{Title: " "}}))
	assert.Error(t, ValidateDeliverables([]Deliverable{{Title: "API", URL: "ftp://example.com"}}))
	assert.Error(t, ValidateDeliverables([]Deliverable{{Title: "API", URL: "https://"}}))
}

func TestValidateMilestoneTitles(t *testing.T) {
	assert.NoError(t, ValidateMilestoneTitles([]string{"Design", "Build"}))
	assert.Error(t, ValidateMilestoneTitles([]string{"Design", ""}))
}
