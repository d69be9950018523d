package market

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed demo.yaml
var demoSeed []byte

// Seed is the ingestion format for market records. Unknown fields are
// rejected.
type Seed struct {
	Properties   []Property        `yaml:"properties"`
	Allocations  []VaultAllocation `yaml:"allocations"`
	Strategies   []Strategy        `yaml:"strategies"`
	Pools        []Pool            `yaml:"pools"`
	Transactions []Transaction     `yaml:"transactions"`
	Loans        []Loan            `yaml:"loans"`
}

func DecodeSeed(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Seed
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeSeed(f)
}

// DemoSeed returns the built-in demo data.
func DemoSeed() *Seed {
	s, err := DecodeSeed(bytes.NewReader(demoSeed))
	if err != nil {
		panic(fmt.Sprintf("embedded demo seed: %v", err))
	}
	return s
}

func (s *Seed) Validate() error {
	var errs []string
	dup := func(kind string, ids []string) {
		seen := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			if id == "" {
				errs = append(errs, kind+": empty id")
				continue
			}
			if _, ok := seen[id]; ok {
				errs = append(errs, fmt.Sprintf("%s: duplicate id %q", kind, id))
			}
			seen[id] = struct{}{}
		}
	}

	ids := make([]string, 0, len(s.Properties))
	for _, p := range s.Properties {
		ids = append(ids, p.ID)
		if p.Price.IsNegative() {
			errs = append(errs, fmt.Sprintf("property %q: negative price", p.ID))
		}
		if p.TotalLots < 0 || p.AvailableLots < 0 || p.AvailableLots > p.TotalLots {
			errs = append(errs, fmt.Sprintf("property %q: available_lots must be within 0..total_lots", p.ID))
		}
	}
	dup("properties", ids)

	ids = ids[:0]
	for _, a := range s.Allocations {
		ids = append(ids, a.ID)
		if !a.Allocation.IsPositive() || a.Allocation.GreaterThan(hundred) {
			errs = append(errs, fmt.Sprintf("allocation %q: allocation must be within (0, 100]", a.ID))
		}
	}
	dup("allocations", ids)

	ids = ids[:0]
	for _, st := range s.Strategies {
		ids = append(ids, st.ID)
	}
	dup("strategies", ids)

	ids = ids[:0]
	for _, p := range s.Pools {
		ids = append(ids, p.ID)
		if p.Borrowed.GreaterThan(p.Supplied) {
			errs = append(errs, fmt.Sprintf("pool %q: borrowed exceeds supplied", p.ID))
		}
	}
	dup("pools", ids)

	ids = ids[:0]
	for _, t := range s.Transactions {
		ids = append(ids, t.ID)
	}
	dup("transactions", ids)

	ids = ids[:0]
	for _, l := range s.Loans {
		ids = append(ids, l.ID)
	}
	dup("loans", ids)

	if len(errs) > 0 {
		return fmt.Errorf("%w: seed: %s", ErrInvalidInput, strings.Join(errs, "; "))
	}
	return nil
}
