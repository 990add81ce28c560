// Package vocab resolves free-text clinical vocabulary (drug names, units,
// routes, frequencies, diagnosis names) into the EMR's internal coded
// identifiers via search-and-match.
package vocab

import (
	"context"
	"strings"
	"unicode"

	"github.com/clinbridge/clinbridge/internal/platform/emr"
)

// Searcher is the slice of the EMR client the resolver needs.
type Searcher interface {
	SearchConcepts(ctx context.Context, term string) ([]emr.ConceptRef, error)
	SearchDrugs(ctx context.Context, term string) ([]emr.ConceptRef, error)
}

type Resolver struct {
	emr Searcher
}

func NewResolver(emr Searcher) *Resolver {
	return &Resolver{emr: emr}
}

// Concept resolves a free-text name to a coded concept identifier. The match
// is a case-insensitive exact comparison against each candidate's display
// label. Every call is a fresh network round trip; nothing is cached.
func (r *Resolver) Concept(ctx context.Context, name string) (string, error) {
	candidates, err := r.emr.SearchConcepts(ctx, name)
	if err != nil {
		return "", err
	}
	for _, c := range candidates {
		if strings.EqualFold(c.Display, name) {
			return c.UUID, nil
		}
	}
	return "", &emr.ResolutionError{Kind: "concept", Term: name}
}

// Drug resolves a drug name plus strength to a coded drug identifier. The EMR
// displays drugs as "<name> <strength>" with inconsistent spacing, so the
// comparison ignores all whitespace in addition to case.
func (r *Resolver) Drug(ctx context.Context, name, strength string) (string, error) {
	candidates, err := r.emr.SearchDrugs(ctx, name)
	if err != nil {
		return "", err
	}
	want := stripSpace(name + strength)
	for _, c := range candidates {
		if strings.EqualFold(stripSpace(c.Display), want) {
			return c.UUID, nil
		}
	}
	return "", &emr.ResolutionError{Kind: "drug", Term: strings.TrimSpace(name + " " + strength)}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
