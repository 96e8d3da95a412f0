package codegen

import (
	"strings"
	"text/template"
	"unicode"
)

// fileTemplate renders one generated source file per object.
var fileTemplate = template.Must(template.New("object").Parse(`// Code generated by stratus-codegen. DO NOT EDIT.

package {{.Package}}
{{if .Imports}}
import (
{{- range .Imports}}
	{{printf "%q" .}}
{{- end}}
)
{{end}}
// {{.TypeName}} is the generated model for the {{.ObjectName}} object.
type {{.TypeName}} struct {
{{- range .Fields}}
	{{.GoName}} {{.GoType}} ` + "`json:\"{{.JSONName}}{{if .OmitEmpty}},omitempty{{end}}\"`" + `
{{- end}}
}

// ObjectName reports the platform object this type maps to.
func ({{.TypeName}}) ObjectName() string { return {{printf "%q" .ObjectName}} }
`))

type fileData struct {
	Package    string
	TypeName   string
	ObjectName string
	Imports    []string
	Fields     []fieldData
}

type fieldData struct {
	GoName    string
	GoType    string
	JSONName  string
	OmitEmpty bool
}

// typeInfo is the Go rendering of one schema field type.
type typeInfo struct {
	name       string
	importPath string
	// pointerWhenNillable means nil is the natural absent value, so nillable
	// fields of this type become pointers.
	pointerWhenNillable bool
}

// schemaTypes maps platform field types to Go. Unknown types fall back to
// string, which round-trips any JSON scalar the platform sends.
var schemaTypes = map[string]typeInfo{
	"string":    {name: "string"},
	"textarea":  {name: "string"},
	"picklist":  {name: "string"},
	"id":        {name: "string"},
	"reference": {name: "string"},
	"url":       {name: "string"},
	"email":     {name: "string"},
	"phone":     {name: "string"},
	"boolean":   {name: "bool", pointerWhenNillable: true},
	"int":       {name: "int64", pointerWhenNillable: true},
	"double":    {name: "float64", pointerWhenNillable: true},
	"currency":  {name: "decimal.Decimal", importPath: "github.com/shopspring/decimal", pointerWhenNillable: true},
	"percent":   {name: "decimal.Decimal", importPath: "github.com/shopspring/decimal", pointerWhenNillable: true},
	"date":      {name: "time.Time", importPath: "time", pointerWhenNillable: true},
	"datetime":  {name: "time.Time", importPath: "time", pointerWhenNillable: true},
}

func goType(fieldType string, nillable bool) typeInfo {
	ti, ok := schemaTypes[strings.ToLower(fieldType)]
	if !ok {
		ti = typeInfo{name: "string"}
	}
	if nillable && ti.pointerWhenNillable {
		ti.name = "*" + ti.name
	}
	return ti
}

// goName converts a schema identifier to an exported Go name. Custom-field
// suffixes ("__c") and separators are stripped, each word is capitalised and
// the usual initialisms are upper-cased.
func goName(name string) string {
	name = strings.TrimSuffix(name, "__c")
	var b strings.Builder
	upperNext := true
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == ' ':
			upperNext = true
		case upperNext:
			b.WriteRune(unicode.ToUpper(r))
			upperNext = false
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		return "Field"
	}
	if !unicode.IsLetter(rune(out[0])) {
		out = "F" + out
	}
	for _, init := range []string{"Id", "Url", "Api", "Html", "Sla"} {
		if strings.HasSuffix(out, init) {
			out = out[:len(out)-len(init)] + strings.ToUpper(init)
		}
	}
	return out
}

// fileName derives the generated file name for an object.
func fileName(objectName string) string {
	return strings.ToLower(strings.TrimSuffix(objectName, "__c")) + "_gen.go"
}
