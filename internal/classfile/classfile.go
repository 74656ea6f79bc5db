// Package classfile builds and persists the aggregated background
// material for one course: a structured syllabus outline, a concept
// list, and a bank of practice problems. A class file is built once from
// already-extracted source text and then passed by reference into
// generation calls as context; the generation engine never mutates it.
package classfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ClassFile is the aggregated background context for one course.
type ClassFile struct {
	ClassName        string    `json:"class_name,omitempty"`
	Syllabus         Syllabus  `json:"syllabus"`
	Concepts         []string  `json:"concepts"`
	PracticeProblems []string  `json:"practice_problems"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Syllabus is the structured course outline.
type Syllabus struct {
	Units []Unit `json:"units"`
}

// Unit is one unit of the course outline.
type Unit struct {
	Title  string   `json:"title"`
	Topics []string `json:"topics"`
}

// AllTopics flattens every unit's topics into one list.
func (s Syllabus) AllTopics() []string {
	var out []string
	for _, u := range s.Units {
		out = append(out, u.Topics...)
	}
	return out
}

// Save writes the class file as indented JSON, creating parent
// directories as needed.
func Save(path string, cf *ClassFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create class file dir: %w", err)
	}
	data, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal class file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write class file: %w", err)
	}
	return nil
}

// Load reads a class file previously written by Save.
func Load(path string) (*ClassFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class file: %w", err)
	}
	var cf ClassFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse class file: %w", err)
	}
	return &cf, nil
}
