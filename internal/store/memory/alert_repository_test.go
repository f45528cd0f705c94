package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"vigil-go/internal/domain"
)

func seedAlerts(t *testing.T, r *AlertRepository) {
	t.Helper()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	alerts := []*domain.Alert{
		{ID: "a1", OrganizationID: "org-1", ServerID: "s1", RuleID: "r1", Status: domain.AlertStatusOpen, Type: domain.AlertTypeSingle, CreatedAt: base},
		{ID: "a2", OrganizationID: "org-1", ServerID: "s2", RuleID: "r2", Status: domain.AlertStatusOpen, Type: domain.AlertTypeSingle, CreatedAt: base.Add(time.Minute)},
		{ID: "a3", OrganizationID: "org-1", ServerID: "s1", Status: domain.AlertStatusOpen, Type: domain.AlertTypeCorrelated, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "a4", OrganizationID: "org-2", ServerID: "s9", RuleID: "r9", Status: domain.AlertStatusResolved, Type: domain.AlertTypeSingle, CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, a := range alerts {
		if err := r.Create(context.Background(), a); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}
}

func TestAlertRepository_ListFilters(t *testing.T) {
	r := NewAlertRepository()
	seedAlerts(t, r)
	ctx := context.Background()

	tests := []struct {
		name    string
		filter  domain.AlertFilter
		wantIDs []string
	}{
		{"by organization", domain.AlertFilter{OrganizationID: "org-1"}, []string{"a3", "a2", "a1"}},
		{"by server", domain.AlertFilter{ServerID: "s1"}, []string{"a3", "a1"}},
		{"by rule", domain.AlertFilter{RuleID: "r2"}, []string{"a2"}},
		{"by type", domain.AlertFilter{Type: domain.AlertTypeCorrelated}, []string{"a3"}},
		{"by status", domain.AlertFilter{Status: domain.AlertStatusResolved}, []string{"a4"}},
		{"with limit", domain.AlertFilter{OrganizationID: "org-1", Limit: 2}, []string{"a3", "a2"}},
		{"with offset", domain.AlertFilter{OrganizationID: "org-1", Offset: 1}, []string{"a2", "a1"}},
		{"offset past end", domain.AlertFilter{OrganizationID: "org-1", Offset: 10}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts, err := r.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List error: %v", err)
			}
			if len(alerts) != len(tt.wantIDs) {
				t.Fatalf("List returned %d alerts, want %d", len(alerts), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if alerts[i].ID != want {
					t.Errorf("alerts[%d].ID = %s, want %s", i, alerts[i].ID, want)
				}
			}
		})
	}
}

func TestAlertRepository_GetByID(t *testing.T) {
	r := NewAlertRepository()
	seedAlerts(t, r)
	ctx := context.Background()

	alert, err := r.GetByID(ctx, "a2")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if alert.ServerID != "s2" {
		t.Errorf("ServerID = %s, want s2", alert.ServerID)
	}

	if _, err := r.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrAlertNotFound) {
		t.Errorf("GetByID = %v, want ErrAlertNotFound", err)
	}
}

func TestAlertRepository_ReturnsCopies(t *testing.T) {
	r := NewAlertRepository()
	seedAlerts(t, r)
	ctx := context.Background()

	alert, _ := r.GetByID(ctx, "a1")
	alert.Status = domain.AlertStatusResolved

	stored, _ := r.GetByID(ctx, "a1")
	if stored.Status != domain.AlertStatusOpen {
		t.Error("mutating a returned alert must not affect the stored copy")
	}
}
