// Package codegen turns platform schema metadata into Go source: one struct
// per selected object, with field types mapped to their natural Go
// equivalents.
package codegen

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stratushq/stratus-go-sdk/pkg/api"
)

// ObjectFilter selects which objects of the global describe get generated.
type ObjectFilter interface {
	IncludeObject(obj api.ObjectSummary) bool
}

// FieldFilter selects which fields of an object land in the generated struct.
type FieldFilter interface {
	IncludeField(obj api.ObjectDescribe, field api.FieldDescribe) bool
}

// ObjectFilterFunc adapts a function to the ObjectFilter interface.
type ObjectFilterFunc func(api.ObjectSummary) bool

func (f ObjectFilterFunc) IncludeObject(obj api.ObjectSummary) bool { return f(obj) }

// FieldFilterFunc adapts a function to the FieldFilter interface.
type FieldFilterFunc func(api.ObjectDescribe, api.FieldDescribe) bool

func (f FieldFilterFunc) IncludeField(obj api.ObjectDescribe, field api.FieldDescribe) bool {
	return f(obj, field)
}

// NameFilter selects objects by name. An empty include list admits every
// object not excluded; matching is case-insensitive.
type NameFilter struct {
	include map[string]bool
	exclude map[string]bool
}

// NewNameFilter builds a NameFilter from include and exclude name lists.
func NewNameFilter(include, exclude []string) *NameFilter {
	f := &NameFilter{include: map[string]bool{}, exclude: map[string]bool{}}
	for _, n := range include {
		f.include[strings.ToLower(n)] = true
	}
	for _, n := range exclude {
		f.exclude[strings.ToLower(n)] = true
	}
	return f
}

func (f *NameFilter) IncludeObject(obj api.ObjectSummary) bool {
	name := strings.ToLower(obj.Name)
	if f.exclude[name] {
		return false
	}
	return len(f.include) == 0 || f.include[name]
}

// QueryableOnly admits only objects the session can actually query.
var QueryableOnly = ObjectFilterFunc(func(obj api.ObjectSummary) bool {
	return obj.Queryable
})

// CustomFieldsOnly keeps the synthetic identifier plus custom fields, which
// matches the common pattern of modelling only an application's own schema.
var CustomFieldsOnly = FieldFilterFunc(func(_ api.ObjectDescribe, field api.FieldDescribe) bool {
	return field.Custom || strings.EqualFold(field.Name, "id")
})

// ScalarFieldsOnly drops relationship fields, keeping generated structs free
// of cross-object references.
var ScalarFieldsOnly = FieldFilterFunc(func(_ api.ObjectDescribe, field api.FieldDescribe) bool {
	return len(field.ReferenceTo) == 0 && !strings.EqualFold(field.Type, "reference")
})

// allObjects and allFields are the defaults when no filter is configured.
var (
	allObjects = ObjectFilterFunc(func(api.ObjectSummary) bool { return true })
	allFields  = FieldFilterFunc(func(api.ObjectDescribe, api.FieldDescribe) bool { return true })
)

// objectFilters runs every filter in order; the first rejection wins.
type objectFilters []ObjectFilter

func (fs objectFilters) IncludeObject(obj api.ObjectSummary) bool {
	for _, f := range fs {
		if !f.IncludeObject(obj) {
			return false
		}
	}
	return true
}

type fieldFilters []FieldFilter

func (fs fieldFilters) IncludeField(obj api.ObjectDescribe, field api.FieldDescribe) bool {
	for _, f := range fs {
		if !f.IncludeField(obj, field) {
			return false
		}
	}
	return true
}

// FilterConfig is the YAML shape of a generation filter file.
type FilterConfig struct {
	Package       string   `yaml:"package"`
	Include       []string `yaml:"include"`
	Exclude       []string `yaml:"exclude"`
	QueryableOnly bool     `yaml:"queryable_only"`
	CustomFields  bool     `yaml:"custom_fields_only"`
	ScalarFields  bool     `yaml:"scalar_fields_only"`
	ExcludeFields []string `yaml:"exclude_fields"`
}

// LoadFilterConfig reads a filter file.
func LoadFilterConfig(path string) (*FilterConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read filter config: %w", err)
	}
	var cfg FilterConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse filter config: %w", err)
	}
	return &cfg, nil
}

// ObjectFilter assembles the object selection the config describes.
func (c *FilterConfig) ObjectFilter() ObjectFilter {
	var fs objectFilters
	if c.QueryableOnly {
		fs = append(fs, QueryableOnly)
	}
	if len(c.Include) > 0 || len(c.Exclude) > 0 {
		fs = append(fs, NewNameFilter(c.Include, c.Exclude))
	}
	if len(fs) == 0 {
		return allObjects
	}
	return fs
}

// FieldFilter assembles the field selection the config describes.
func (c *FilterConfig) FieldFilter() FieldFilter {
	var fs fieldFilters
	if c.CustomFields {
		fs = append(fs, CustomFieldsOnly)
	}
	if c.ScalarFields {
		fs = append(fs, ScalarFieldsOnly)
	}
	if len(c.ExcludeFields) > 0 {
		excluded := map[string]bool{}
		for _, n := range c.ExcludeFields {
			excluded[strings.ToLower(n)] = true
		}
		fs = append(fs, FieldFilterFunc(func(_ api.ObjectDescribe, field api.FieldDescribe) bool {
			return !excluded[strings.ToLower(field.Name)]
		}))
	}
	if len(fs) == 0 {
		return allFields
	}
	return fs
}
