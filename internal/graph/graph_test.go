// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package graph

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/models"
)

const scenarioGraph = `{
  "directory_relationships": {
    "A": {"primary_category": "Getting Started", "context_tags": ["x", "y"], "primary_connections": ["B", "C"]},
    "B": {"primary_category": "AI & Technology", "context_tags": ["y", "z"], "primary_connections": ["A"], "description": "Tools"}
  },
  "professional_growth_pathways": {
    "S1": {"recommended_resources": ["B"], "skill_focus": ["learning"]}
  },
  "local_economic_context": {"port_townsend_professional_ecosystem": {"key_characteristics": ["maritime"]}}
}`

func loadScenario(t *testing.T) *Graph {
	t.Helper()
	g, err := Load(strings.NewReader(scenarioGraph))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return g
}

func TestLoad(t *testing.T) {
	t.Parallel()

	g := loadScenario(t)

	if got := g.IDs(); len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("IDs() = %v, want [A B]", got)
	}
	if n := g.Neighbors("A"); len(n) != 2 || n[0] != "B" || n[1] != "C" {
		t.Errorf("Neighbors(A) = %v", n)
	}
	if !g.IsConnected("A", "B") || g.IsConnected("B", "C") {
		t.Error("IsConnected mismatch")
	}
	if _, ok := g.Tags("A")["x"]; !ok {
		t.Error("Tags(A) missing x")
	}
	p, ok := g.Pathway("S1")
	if !ok || !p.Recommends("B") || p.Recommends("A") {
		t.Errorf("Pathway(S1) = %+v, %v", p, ok)
	}
	if len(g.EconomicContext()) == 0 {
		t.Error("economic context not retained")
	}
}

func TestUnknownIDsDegrade(t *testing.T) {
	t.Parallel()

	g := loadScenario(t)
	if n := g.Neighbors("nope"); len(n) != 0 {
		t.Errorf("Neighbors(unknown) = %v", n)
	}
	if tags := g.Tags("nope"); len(tags) != 0 {
		t.Errorf("Tags(unknown) = %v", tags)
	}
	if _, ok := g.Pathway("unknown stage"); ok {
		t.Error("Pathway(unknown) should be absent")
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"directory_relationships": `},
		{"missing key", `{"professional_growth_pathways": {}}`},
		{"empty resources", `{"directory_relationships": {}, "professional_growth_pathways": {"S": {"recommended_resources": [], "skill_focus": ["a"]}}}`},
		{"empty skill focus", `{"directory_relationships": {}, "professional_growth_pathways": {"S": {"recommended_resources": ["A"], "skill_focus": []}}}`},
		{"not an object", `[1, 2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(strings.NewReader(tt.input))
			if !errors.Is(err, models.ErrConfig) {
				t.Errorf("Load() error = %v, want ErrConfig", err)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	s := loadScenario(t).Summarize()
	if s.TotalDirectories != 2 || s.TotalConnections != 3 {
		t.Errorf("Summarize() = %+v", s)
	}
	if len(s.DanglingRefs) != 1 || s.DanglingRefs[0] != "C" {
		t.Errorf("DanglingRefs = %v, want [C]", s.DanglingRefs)
	}
	if len(s.Pathways) != 1 || s.Pathways[0] != "S1" {
		t.Errorf("Pathways = %v", s.Pathways)
	}
}

func TestBreadcrumb(t *testing.T) {
	t.Parallel()

	g := loadScenario(t)
	crumbs := g.Breadcrumb("B")
	if len(crumbs) != 1 || crumbs[0].Path != "/B" || crumbs[0].Context != "Tools" {
		t.Errorf("Breadcrumb(B) = %+v", crumbs)
	}
	if c := g.Breadcrumb("04_quick_start_guides"); c[0].Name != "04 Quick Start Guides" || c[0].Context != DefaultDescription {
		t.Errorf("Breadcrumb(unknown) = %+v", c)
	}
}

func TestHolderReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "graph.json")
	if err := os.WriteFile(path, []byte(scenarioGraph), 0o600); err != nil {
		t.Fatal(err)
	}

	h, err := OpenHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenHolder() error = %v", err)
	}
	if h.Version() != 1 || h.Current().Len() != 2 {
		t.Fatalf("initial holder state: version=%d len=%d", h.Version(), h.Current().Len())
	}

	updated := `{"directory_relationships": {"A": {}, "B": {}, "C": {}}}`
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if h.Version() != 2 || h.Current().Len() != 3 {
		t.Errorf("after reload: version=%d len=%d", h.Version(), h.Current().Len())
	}

	if err := os.WriteFile(path, []byte(`{broken`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Reload(); err == nil {
		t.Error("Reload() of broken file should fail")
	}
	if h.Current().Len() != 3 {
		t.Error("failed reload must keep the previous graph")
	}
}
