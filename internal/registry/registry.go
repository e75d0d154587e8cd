// Package registry resolves per-match display names to stable Cricsheet player
// identifiers and exposes the global people register.
package registry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Person is one row of the people register.
type Person struct {
	ID          string
	Name        string
	UniqueName  string
	CountryHint string
	CricinfoID  string
}

// Registry is the global id → person table plus a reverse name → id index
// holding only unambiguous names. The zero value is an empty registry.
type Registry struct {
	people map[string]Person
	byName map[string]string
}

// New builds a registry from people rows.
func New(people []Person) *Registry {
	r := &Registry{
		people: make(map[string]Person, len(people)),
		byName: make(map[string]string, len(people)),
	}
	ambiguous := make(map[string]bool)
	index := func(name, id string) {
		if name == "" || ambiguous[name] {
			return
		}
		if prev, ok := r.byName[name]; ok && prev != id {
			delete(r.byName, name)
			ambiguous[name] = true
			return
		}
		r.byName[name] = id
	}
	for _, p := range people {
		if p.ID == "" {
			continue
		}
		r.people[p.ID] = p
		index(p.Name, p.ID)
		if p.UniqueName != p.Name {
			index(p.UniqueName, p.ID)
		}
	}
	return r
}

// Len returns the number of people in the register.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.people)
}

// Lookup returns the register entry for id.
func (r *Registry) Lookup(id string) (Person, bool) {
	if r == nil || r.people == nil {
		return Person{}, false
	}
	p, ok := r.people[id]
	return p, ok
}

// Resolve maps a display name to a stable id. The in-match registry wins;
// the global name index is consulted only when the match does not list the name.
func (r *Registry) Resolve(displayName string, inMatch map[string]string) (string, bool) {
	if displayName == "" {
		return "", false
	}
	if id, ok := inMatch[displayName]; ok && id != "" {
		return id, true
	}
	if r == nil || r.byName == nil {
		return "", false
	}
	id, ok := r.byName[displayName]
	return id, ok
}

// CanonicalName returns the register name for id, falling back to displayName.
func (r *Registry) CanonicalName(id, displayName string) string {
	if p, ok := r.Lookup(id); ok && p.Name != "" {
		return p.Name
	}
	return displayName
}

// LoadCSV reads a Cricsheet people.csv file. A missing file yields an empty
// registry and os.ErrNotExist so callers can degrade to in-match registries.
func LoadCSV(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(nil), err
		}
		return nil, fmt.Errorf("open people register: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses a people register from r. Columns are located by header name;
// identifier is required, name, unique_name, country and key_cricinfo are optional.
func ReadCSV(r io.Reader) (*Registry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read people header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	idCol, ok := col["identifier"]
	if !ok {
		return nil, fmt.Errorf("people register: missing identifier column")
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var people []Person
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read people row: %w", err)
		}
		if idCol >= len(row) {
			continue
		}
		id := strings.TrimSpace(row[idCol])
		if id == "" {
			continue
		}
		people = append(people, Person{
			ID:          id,
			Name:        field(row, "name"),
			UniqueName:  field(row, "unique_name"),
			CountryHint: field(row, "country"),
			CricinfoID:  field(row, "key_cricinfo"),
		})
	}
	return New(people), nil
}
