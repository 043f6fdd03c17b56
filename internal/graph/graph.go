// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package graph provides typed, read-only access to the resource graph: the
// directories of the library, their categorical relationships, the
// professional growth pathways and the economic context they sit in.
//
// A Graph is immutable after Load. Hot reload is handled by Holder, which
// swaps whole graphs atomically.
package graph

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfinder/internal/models"
)

// DefaultDescription is returned for directories without a description.
const DefaultDescription = "Professional resource navigation"

// Node describes one directory in the library.
type Node struct {
	ID                 string
	PrimaryCategory    string
	Description        string
	Tags               map[string]struct{}
	Connections        []string
	EconomicAlignments []string
}

// Pathway is the curated resource list for one professional stage.
type Pathway struct {
	Stage                string   `json:"stage"`
	RecommendedResources []string `json:"recommended_resources"`
	SkillFocus           []string `json:"skill_focus"`
}

// Recommends reports whether the pathway lists id.
func (p Pathway) Recommends(id string) bool {
	for _, r := range p.RecommendedResources {
		if r == id {
			return true
		}
	}
	return false
}

// Crumb is one element of a breadcrumb trail.
type Crumb struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Context string `json:"context"`
}

// Summary describes the shape of a loaded graph.
type Summary struct {
	TotalDirectories int      `json:"total_directories"`
	TotalConnections int      `json:"total_connections"`
	Pathways         []string `json:"professional_pathways"`
	Categories       []string `json:"categories"`
	DanglingRefs     []string `json:"dangling_references,omitempty"`
	Source           string   `json:"source,omitempty"`
}

// Graph is the loaded resource graph.
type Graph struct {
	nodes    map[string]*Node
	pathways map[string]Pathway
	ids      []string
	stages   []string
	economic json.RawMessage
	source   string
}

type rawNode struct {
	PrimaryCategory    string   `json:"primary_category"`
	Description        string   `json:"description"`
	ContextTags        []string `json:"context_tags"`
	PrimaryConnections []string `json:"primary_connections"`
	EconomicAlignments []string `json:"economic_alignments"`
}

type rawPathway struct {
	RecommendedResources []string `json:"recommended_resources"`
	SkillFocus           []string `json:"skill_focus"`
}

type rawGraph struct {
	Relationships map[string]rawNode    `json:"directory_relationships"`
	Pathways      map[string]rawPathway `json:"professional_growth_pathways"`
	Economic      json.RawMessage       `json:"local_economic_context"`
}

// Load parses a resource graph document. The directory_relationships key is
// required; a pathway present in the document must list at least one
// recommended resource and one skill focus.
func Load(r io.Reader) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, models.ConfigError("load graph", "read: %v", err)
	}
	return parse(data, "")
}

// LoadFile loads a resource graph from a JSON file.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, models.ConfigError("load graph", "read %s: %v", path, err)
	}
	return parse(data, path)
}

func parse(data []byte, source string) (*Graph, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, models.ConfigError("load graph", "malformed JSON: %v", err)
	}
	if _, ok := probe["directory_relationships"]; !ok {
		return nil, models.ConfigError("load graph", "missing directory_relationships")
	}

	var raw rawGraph
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		return nil, models.ConfigError("load graph", "decode: %v", err)
	}

	g := &Graph{
		nodes:    make(map[string]*Node, len(raw.Relationships)),
		pathways: make(map[string]Pathway, len(raw.Pathways)),
		economic: raw.Economic,
		source:   source,
	}

	for id, rn := range raw.Relationships {
		if strings.TrimSpace(id) == "" {
			return nil, models.ConfigError("load graph", "empty directory id")
		}
		n := &Node{
			ID:                 id,
			PrimaryCategory:    rn.PrimaryCategory,
			Description:        rn.Description,
			Tags:               make(map[string]struct{}, len(rn.ContextTags)),
			Connections:        dedupe(rn.PrimaryConnections),
			EconomicAlignments: append([]string(nil), rn.EconomicAlignments...),
		}
		for _, tag := range rn.ContextTags {
			n.Tags[tag] = struct{}{}
		}
		g.nodes[id] = n
		g.ids = append(g.ids, id)
	}
	sort.Strings(g.ids)

	for stage, rp := range raw.Pathways {
		if len(rp.RecommendedResources) == 0 {
			return nil, models.ConfigError("load graph", "pathway %q has no recommended_resources", stage)
		}
		if len(rp.SkillFocus) == 0 {
			return nil, models.ConfigError("load graph", "pathway %q has no skill_focus", stage)
		}
		g.pathways[stage] = Pathway{
			Stage:                stage,
			RecommendedResources: append([]string(nil), rp.RecommendedResources...),
			SkillFocus:           append([]string(nil), rp.SkillFocus...),
		}
		g.stages = append(g.stages, stage)
	}
	sort.Strings(g.stages)

	return g, nil
}

// dedupe keeps first occurrences in order.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Has reports whether id is a known directory.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the directory with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// IDs returns all directory ids in sorted order. The slice is a copy.
func (g *Graph) IDs() []string {
	return append([]string(nil), g.ids...)
}

// Len returns the number of directories.
func (g *Graph) Len() int {
	return len(g.ids)
}

// Neighbors returns the primary connections of id in declaration order.
// Unknown ids have no neighbors.
func (g *Graph) Neighbors(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return append([]string(nil), n.Connections...)
}

// IsConnected reports whether to is a primary connection of from.
func (g *Graph) IsConnected(from, to string) bool {
	n, ok := g.nodes[from]
	if !ok {
		return false
	}
	for _, c := range n.Connections {
		if c == to {
			return true
		}
	}
	return false
}

// Tags returns the context tag set of id. Unknown ids have no tags. The map
// must not be modified.
func (g *Graph) Tags(id string) map[string]struct{} {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return n.Tags
}

// Pathway returns the growth pathway for stage.
func (g *Graph) Pathway(stage string) (Pathway, bool) {
	p, ok := g.pathways[stage]
	return p, ok
}

// Stages returns the stages that have a pathway, sorted.
func (g *Graph) Stages() []string {
	return append([]string(nil), g.stages...)
}

// EconomicContext returns the raw local_economic_context document, or nil.
func (g *Graph) EconomicContext() json.RawMessage {
	return g.economic
}

// Breadcrumb returns the navigation trail for id with its local context.
func (g *Graph) Breadcrumb(id string) []Crumb {
	desc := DefaultDescription
	if n, ok := g.nodes[id]; ok && n.Description != "" {
		desc = n.Description
	}
	return []Crumb{{
		Name:    displayName(id),
		Path:    "/" + id,
		Context: desc,
	}}
}

// displayName turns "04_quick_start" into "04 Quick Start".
func displayName(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// Summarize describes the graph, including connections that point at
// directories the graph does not define.
func (g *Graph) Summarize() Summary {
	s := Summary{
		TotalDirectories: len(g.ids),
		Pathways:         g.Stages(),
		Source:           g.source,
	}
	categories := make(map[string]struct{})
	dangling := make(map[string]struct{})
	for _, id := range g.ids {
		n := g.nodes[id]
		s.TotalConnections += len(n.Connections)
		if n.PrimaryCategory != "" {
			categories[n.PrimaryCategory] = struct{}{}
		}
		for _, c := range n.Connections {
			if !g.Has(c) {
				dangling[c] = struct{}{}
			}
		}
	}
	for _, p := range g.pathways {
		for _, r := range p.RecommendedResources {
			if !g.Has(r) {
				dangling[r] = struct{}{}
			}
		}
	}
	s.Categories = sortedKeys(categories)
	s.DanglingRefs = sortedKeys(dangling)
	return s
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// String implements fmt.Stringer.
func (g *Graph) String() string {
	return fmt.Sprintf("graph(%d directories, %d pathways)", len(g.ids), len(g.stages))
}
