// Package models defines the domain types for zettl.
package models

import "time"

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Node is one note in the link graph.
type Node struct {
	ID string `json:"id"`
}

// Link represents a directed reference from one note to another.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is the serialized link graph document.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}
