package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderID(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 5, 7, 0, time.UTC)
	id := GenerateOrderID(now)

	assert.Regexp(t, regexp.MustCompile(`^TOUR-20260301-090507-\d{4}$`), id)
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 3, ParseInt("3", 1))
	assert.Equal(t, 1, ParseInt("", 1))
	assert.Equal(t, 10, ParseInt("abc", 10))
	assert.Equal(t, 10, ParseInt("-2", 10))
}

func TestCalculateTotalPages(t *testing.T) {
	assert.Equal(t, 0, CalculateTotalPages(0, 10))
	assert.Equal(t, 1, CalculateTotalPages(10, 10))
	assert.Equal(t, 2, CalculateTotalPages(11, 10))
	assert.Equal(t, 0, CalculateTotalPages(5, 0))
}

func TestValidateStruct(t *testing.T) {
	type sample struct {
		Name  string `json:"name" validate:"required"`
		Count int    `json:"count" validate:"min=1"`
	}

	errs := ValidateStruct(sample{})
	assert.Equal(t, "This field is required", errs["Name"])
	assert.Equal(t, "Minimum value is 1", errs["Count"])

	assert.Nil(t, ValidateStruct(sample{Name: "x", Count: 2}))
}

func TestValidateStruct_NilInput(t *testing.T) {
	type sample struct {
		Name string `validate:"required"`
	}
	var missing *sample

	errs := ValidateStruct(missing)
	assert.Contains(t, errs, "request")
}

func TestFormatValidationErrors_SortedByField(t *testing.T) {
	msg := FormatValidationErrors(map[string]string{
		"PartySize":  "Minimum value is 1",
		"ScheduleID": "This field is required",
	})
	assert.Equal(t, "PartySize: Minimum value is 1; ScheduleID: This field is required", msg)
}
