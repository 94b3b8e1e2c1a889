package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevN0mad/OpenProjectTools/internal/models"
)

func TestBuildUpdatePayload(t *testing.T) {
	subject := "New subject"
	description := "Updated description"
	hours := 8.0
	ratio := 75
	lock := 3

	req := &models.WorkPackageUpdateRequest{
		WorkPackageID:  42,
		Subject:        &subject,
		Description:    &description,
		EstimatedHours: &hours,
		DoneRatio:      &ratio,
		LockVersion:    &lock,
	}
	status := &models.Status{ID: 2, Name: "In Progress"}

	payload := BuildUpdatePayload(req, status)

	assert.Equal(t, "New subject", payload["subject"])
	assert.Equal(t, map[string]any{"format": "markdown", "raw": "Updated description"}, payload["description"])
	assert.Equal(t, "PT8H", payload["estimatedTime"])
	assert.Equal(t, 75, payload["percentageDone"])
	assert.Equal(t, 3, payload["lockVersion"])

	links, ok := payload["_links"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"href": "/api/v3/statuses/2"}, links["status"])
}

func TestBuildUpdatePayloadSkipsUnsetFields(t *testing.T) {
	subject := "Only subject"
	payload := BuildUpdatePayload(&models.WorkPackageUpdateRequest{
		WorkPackageID: 42,
		Subject:       &subject,
	}, nil)

	assert.Equal(t, map[string]any{"subject": "Only subject"}, payload)
	assert.NotContains(t, payload, "_links")
}

func TestBuildUpdatePayloadDoesNotMutateRequest(t *testing.T) {
	subject := "Stable"
	req := &models.WorkPackageUpdateRequest{WorkPackageID: 1, Subject: &subject}

	first := BuildUpdatePayload(req, nil)
	first["subject"] = "Mutated"
	first["extra"] = true

	second := BuildUpdatePayload(req, nil)
	assert.Equal(t, "Stable", *req.Subject)
	assert.Equal(t, map[string]any{"subject": "Stable"}, second)
}

func TestBuildCreatePayload(t *testing.T) {
	description := "A task"
	start := "2026-02-01"
	due := "2026-02-15"
	hours := 2.5
	typeID := 1
	assigneeID := 7

	payload := BuildCreatePayload(&models.WorkPackageCreateRequest{
		ProjectID:      5,
		Subject:        "New task",
		Description:    &description,
		StartDate:      &start,
		DueDate:        &due,
		EstimatedHours: &hours,
		TypeID:         &typeID,
		AssigneeID:     &assigneeID,
	})

	assert.Equal(t, "New task", payload["subject"])
	assert.Equal(t, "2026-02-01", payload["startDate"])
	assert.Equal(t, "2026-02-15", payload["dueDate"])
	assert.Equal(t, "PT2.5H", payload["estimatedTime"])

	links, ok := payload["_links"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"href": "/api/v3/types/1"}, links["type"])
	assert.Equal(t, map[string]any{"href": "/api/v3/users/7"}, links["assignee"])
}

func TestBuildCreatePayloadMinimal(t *testing.T) {
	payload := BuildCreatePayload(&models.WorkPackageCreateRequest{
		ProjectID: 5,
		Subject:   "Bare task",
	})
	assert.Equal(t, map[string]any{"subject": "Bare task"}, payload)
}

func TestBuildRelationPayload(t *testing.T) {
	payload := BuildRelationPayload(&models.WorkPackageRelationCreateRequest{
		FromWorkPackageID: 1,
		ToWorkPackageID:   2,
		RelationType:      "follows",
		Lag:               3,
		Description:       "waits for deploy",
	})

	assert.Equal(t, "follows", payload["type"])
	assert.Equal(t, 3, payload["lag"])
	assert.Equal(t, "waits for deploy", payload["description"])

	links := payload["_links"].(map[string]any)
	assert.Equal(t, map[string]any{"href": "/api/v3/work_packages/1"}, links["from"])
	assert.Equal(t, map[string]any{"href": "/api/v3/work_packages/2"}, links["to"])
}

func TestFormatISOHours(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{8, "PT8H"},
		{2.5, "PT2.5H"},
		{0, "PT0H"},
		{16, "PT16H"},
		{0.25, "PT0.25H"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatISOHours(tt.hours))
	}
}
