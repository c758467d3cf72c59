// Command gen_schema writes the JSON schema of a Go struct type into the
// embedded schema cache. It is run through go:generate from the models
// package.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"go/token"
	"go/types"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/Desarso/babyzen/schemas"
)

func main() {
	typeName := flag.String("type", "", "Name of the struct type to generate a schema for")
	dir := flag.String("dir", ".", "Directory of the package declaring the type")
	outDir := flag.String("out", "cached_schemas", "Output directory for the generated schema")
	flag.Parse()

	if *typeName == "" {
		log.Fatal("Type name must be provided using -type flag")
	}

	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedImports |
			packages.NeedTypes |
			packages.NeedTypesInfo,
		Fset: token.NewFileSet(),
		Dir:  *dir,
	}

	log.Printf("Loading package info from %s", *dir)
	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		log.Fatalf("Failed to load package in '%s': %v", *dir, err)
	}
	if len(pkgs) == 0 {
		log.Fatalf("No packages found in %s", *dir)
	}

	var loadErrors []string
	for _, p := range pkgs {
		for _, err := range p.Errors {
			loadErrors = append(loadErrors, err.Error())
		}
	}
	if len(loadErrors) > 0 {
		log.Fatalf("Errors during package loading/type checking:\n%s", strings.Join(loadErrors, "\n"))
	}

	pkg := pkgs[0]
	obj := pkg.Types.Scope().Lookup(*typeName)
	if obj == nil {
		log.Fatalf("Type '%s' not found in package '%s'", *typeName, pkg.PkgPath)
	}
	typeObj, ok := obj.(*types.TypeName)
	if !ok {
		log.Fatalf("Object '%s' found but is not a type", *typeName)
	}
	if _, ok := typeObj.Type().Underlying().(*types.Struct); !ok {
		log.Fatalf("Type '%s' is not a struct", *typeName)
	}

	schema, err := schemaForType(typeObj.Type())
	if err != nil {
		log.Fatalf("Failed to generate schema for '%s': %v", *typeName, err)
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("Failed to create directory '%s': %v", *outDir, err)
	}
	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal schema to JSON: %v", err)
	}
	outputFile := filepath.Join(*outDir, *typeName+".json")
	if err := os.WriteFile(outputFile, append(out, '\n'), 0644); err != nil {
		log.Fatalf("Failed to write schema to file '%s': %v", outputFile, err)
	}
	log.Printf("Wrote schema for %s to %s", *typeName, outputFile)
}

// schemaForType maps a Go type onto the subset of JSON schema the Gemini
// response schema understands.
func schemaForType(t types.Type) (schemas.JSONSchema, error) {
	switch typ := t.Underlying().(type) {
	case *types.Basic:
		switch {
		case typ.Info()&types.IsBoolean != 0:
			return schemas.JSONSchema{Type: "boolean"}, nil
		case typ.Info()&types.IsInteger != 0:
			return schemas.JSONSchema{Type: "integer"}, nil
		case typ.Info()&types.IsFloat != 0:
			return schemas.JSONSchema{Type: "number"}, nil
		case typ.Info()&types.IsString != 0:
			return schemas.JSONSchema{Type: "string"}, nil
		}
		return schemas.JSONSchema{}, fmt.Errorf("unsupported basic type: %s", typ.String())

	case *types.Slice:
		elem, err := schemaForType(typ.Elem())
		if err != nil {
			return schemas.JSONSchema{}, fmt.Errorf("slice element %s: %w", typ.Elem().String(), err)
		}
		return schemas.JSONSchema{Type: "array", Items: &elem}, nil

	case *types.Pointer:
		return schemaForType(typ.Elem())

	case *types.Struct:
		schema := schemas.JSONSchema{
			Type:       "object",
			Properties: make(map[string]schemas.JSONSchema),
		}
		for i := 0; i < typ.NumFields(); i++ {
			field := typ.Field(i)
			if !field.Exported() {
				continue
			}
			tag := reflect.StructTag(typ.Tag(i))
			name, omitEmpty := parseJSONTag(tag)
			if name == "-" {
				continue
			}
			if name == "" {
				name = field.Name()
			}

			fieldSchema, err := schemaForType(field.Type())
			if err != nil {
				return schemas.JSONSchema{}, fmt.Errorf("field %s: %w", field.Name(), err)
			}
			fieldSchema.Description = tag.Get("description")
			schema.Properties[name] = fieldSchema
			if !omitEmpty {
				schema.Required = append(schema.Required, name)
			}
		}
		sort.Strings(schema.Required)
		return schema, nil
	}
	return schemas.JSONSchema{}, fmt.Errorf("unhandled type: %s", t.String())
}

func parseJSONTag(tag reflect.StructTag) (name string, omitEmpty bool) {
	value := tag.Get("json")
	if value == "" {
		return "", false
	}
	parts := strings.Split(value, ",")
	for _, opt := range parts[1:] {
		if strings.TrimSpace(opt) == "omitempty" {
			omitEmpty = true
		}
	}
	return parts[0], omitEmpty
}
