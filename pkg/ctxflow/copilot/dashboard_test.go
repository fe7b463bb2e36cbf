package copilot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateDashboardPlanner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "dash.md")

	got, err := GenerateDashboard(
		"build me a weekend planner",
		"Weekend activities:\n1. Hiking\n2. Museum visit",
		TaskPlanner,
		path,
	)
	if err != nil {
		t.Fatalf("GenerateDashboard: %v", err)
	}
	if got != path {
		t.Errorf("returned path = %q, want %q", got, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading dashboard: %v", err)
	}
	content := string(data)
	for _, want := range []string{"Planning Tool", "## Plan", "Hiking", "build me a weekend planner"} {
		if !strings.Contains(content, want) {
			t.Errorf("dashboard missing %q:\n%s", want, content)
		}
	}
}

func TestGenerateDashboardGeneric(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dash.md")

	_, err := GenerateDashboard("analyze data", "Analysis complete", TaskAnalysis, path)
	if err != nil {
		t.Fatalf("GenerateDashboard: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading dashboard: %v", err)
	}
	content := string(data)
	for _, want := range []string{"# Task: Analysis", "Analysis complete", "Task Type: analysis"} {
		if !strings.Contains(content, want) {
			t.Errorf("dashboard missing %q:\n%s", want, content)
		}
	}
}
