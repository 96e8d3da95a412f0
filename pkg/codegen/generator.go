package codegen

import (
	"bytes"
	"context"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/stratushq/stratus-go-sdk/pkg/api"
)

// DescribeSource supplies schema metadata. *api.Connection satisfies it, and
// tests can substitute a fixture.
type DescribeSource interface {
	DescribeGlobal(ctx context.Context) (*api.DescribeGlobalResult, error)
	DescribeObject(ctx context.Context, name string) (*api.ObjectDescribe, error)
}

// Generator writes Go model types for the objects a DescribeSource exposes.
type Generator struct {
	source  DescribeSource
	pkg     string
	objects ObjectFilter
	fields  FieldFilter
	logger  *zap.Logger
}

// GeneratorOption customises a Generator.
type GeneratorOption func(*Generator)

// WithPackageName sets the package name of the generated files.
func WithPackageName(name string) GeneratorOption {
	return func(g *Generator) { g.pkg = name }
}

// WithObjectFilter restricts which objects are generated.
func WithObjectFilter(f ObjectFilter) GeneratorOption {
	return func(g *Generator) { g.objects = f }
}

// WithFieldFilter restricts which fields land in each generated struct.
func WithFieldFilter(f FieldFilter) GeneratorOption {
	return func(g *Generator) { g.fields = f }
}

// WithGeneratorLogger sets the logger.
func WithGeneratorLogger(l *zap.Logger) GeneratorOption {
	return func(g *Generator) { g.logger = l }
}

// NewGenerator creates a Generator reading schema from source.
func NewGenerator(source DescribeSource, opts ...GeneratorOption) *Generator {
	g := &Generator{
		source:  source,
		pkg:     "models",
		objects: allObjects,
		fields:  allFields,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate describes every selected object and writes one formatted source
// file per object under outDir. It returns the written file paths.
func (g *Generator) Generate(ctx context.Context, outDir string) ([]string, error) {
	global, err := g.source.DescribeGlobal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	for _, obj := range global.Objects {
		if !g.objects.IncludeObject(obj) {
			continue
		}
		desc, err := g.source.DescribeObject(ctx, obj.Name)
		if err != nil {
			return written, fmt.Errorf("failed to describe %s: %w", obj.Name, err)
		}
		src, err := g.render(desc)
		if err != nil {
			return written, fmt.Errorf("failed to generate %s: %w", obj.Name, err)
		}
		path := filepath.Join(outDir, fileName(obj.Name))
		if err := os.WriteFile(path, src, 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		g.logger.Info("generated model",
			zap.String("object", obj.Name),
			zap.String("file", path))
		written = append(written, path)
	}
	return written, nil
}

// render produces the formatted source for one object.
func (g *Generator) render(desc *api.ObjectDescribe) ([]byte, error) {
	data := fileData{
		Package:    g.pkg,
		TypeName:   goName(desc.Name),
		ObjectName: desc.Name,
	}

	imports := map[string]bool{}
	for _, field := range desc.Fields {
		if !g.fields.IncludeField(*desc, field) {
			continue
		}
		ti := goType(field.Type, field.Nillable)
		if ti.importPath != "" {
			imports[ti.importPath] = true
		}
		data.Fields = append(data.Fields, fieldData{
			GoName:    goName(field.Name),
			GoType:    ti.name,
			JSONName:  field.Name,
			OmitEmpty: field.Nillable,
		})
	}
	for path := range imports {
		data.Imports = append(data.Imports, path)
	}
	sort.Strings(data.Imports)

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("generated source does not parse: %w", err)
	}
	return src, nil
}
