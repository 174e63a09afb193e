package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/coha/pkg/coha/classify"
	"github.com/cognicore/coha/pkg/coha/internalerr"
	"github.com/cognicore/coha/pkg/coha/normalize"
)

// Policy overrides the column aliases used for classification and
// normalization. Sections left out keep their defaults.
//
//	traits:
//	  doc_id: [textid, text_id, docid, doc_id, article_id]
//	fields:
//	  metadata:
//	    year: [year, date_year, pub_year]
type Policy struct {
	Traits map[string][]string            `yaml:"traits"`
	Fields map[string]map[string][]string `yaml:"fields"`
}

// LoadPolicy loads a policy from a YAML file
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}

	return &p, nil
}

// Aliases returns the default alias sets with the policy's traits applied.
func (p *Policy) Aliases() (classify.AliasSets, error) {
	aliases := classify.DefaultAliases()
	for name, cols := range p.Traits {
		t, err := classify.ParseTrait(name)
		if err != nil {
			return nil, fmt.Errorf("traits: %w: %w", internalerr.ErrInvalidConfig, err)
		}
		aliases[t] = lower(cols)
	}
	return aliases, nil
}

// Schemas returns the default canonical schemas with the policy's field
// aliases applied.
func (p *Policy) Schemas() (map[classify.Role]normalize.Schema, error) {
	schemas := normalize.DefaultSchemas()
	for roleName, fields := range p.Fields {
		role, err := classify.ParseRole(roleName)
		if err != nil || role == classify.Unclassified {
			return nil, fmt.Errorf("fields: unknown role %q: %w", roleName, internalerr.ErrInvalidConfig)
		}
		s := schemas[role]
		for name, cols := range fields {
			i := slices.IndexFunc(s.Fields, func(f normalize.Field) bool { return f.Name == name })
			if i < 0 {
				return nil, fmt.Errorf("fields.%s: unknown field %q: %w", roleName, name, internalerr.ErrInvalidConfig)
			}
			s.Fields[i].Aliases = lower(cols)
		}
		schemas[role] = s
	}
	return schemas, nil
}

func lower(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
