package directive

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

//go:embed builtins.cue
var builtinsCUE string

// ErrUnknown is returned by Lookup for names with no definition.
var ErrUnknown = errors.New("unknown directive")

// Directive is a named instruction placed at the head of an export bundle.
type Directive struct {
	Name        string
	Summary     string
	Instruction string
	BuiltIn     bool
}

// Registry resolves directive names to definitions. Built-ins are compiled
// from the embedded CUE source; LoadDir overlays user definitions on top,
// replacing built-ins of the same name.
//
// Values from different cue.Contexts cannot be unified, so the registry
// keeps the context it compiled the schema with and reuses it for overlays.
type Registry struct {
	ctx        *cue.Context
	schema     cue.Value
	directives map[string]Directive
}

// Builtins compiles the embedded directive set into a fresh registry.
func Builtins() (*Registry, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(builtinsCUE, cue.Filename("builtins.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compiling built-in directives: %w", err)
	}

	schema := root.LookupPath(cue.ParsePath("#Directive"))
	if !schema.Exists() {
		return nil, errors.New("built-in directives: #Directive schema missing")
	}

	r := &Registry{
		ctx:        ctx,
		schema:     schema,
		directives: make(map[string]Directive),
	}
	if _, err := r.addDefinitions(root, true); err != nil {
		return nil, err
	}
	return r, nil
}

// Lookup resolves a directive by name, ignoring case and surrounding
// whitespace. Misses wrap ErrUnknown.
func (r *Registry) Lookup(name string) (Directive, error) {
	d, ok := r.directives[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Directive{}, fmt.Errorf("%q: %w", name, ErrUnknown)
	}
	return d, nil
}

// All returns every directive sorted by name.
func (r *Registry) All() []Directive {
	out := make([]Directive, 0, len(r.directives))
	for _, d := range r.directives {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the sorted directive names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.directives))
	for name := range r.directives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadDir overlays directive definitions from the .cue files under dir.
// Files are evaluated together as one ad-hoc instance, so a definition may
// span files. Definitions replace existing entries of the same name.
// Returns the number of definitions loaded.
func (r *Registry) LoadDir(dir string) (int, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return 0, fmt.Errorf("directive directory not found: %s", dir)
	}
	if err != nil {
		return 0, fmt.Errorf("accessing directive directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", dir)
	}

	files, err := findCUEFiles(dir)
	if err != nil {
		return 0, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return 0, nil
	}

	cfg := &load.Config{Dir: dir}
	instances := load.Instances(files, cfg)
	if len(instances) == 0 {
		return 0, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return 0, fmt.Errorf("loading directive files: %w", inst.Err)
	}

	value := r.ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return 0, formatCUEError(err)
	}

	return r.addDefinitions(value, false)
}

// addDefinitions walks the `directive` struct of a compiled value and
// registers each entry after validating it against the schema.
func (r *Registry) addDefinitions(root cue.Value, builtIn bool) (int, error) {
	defs := root.LookupPath(cue.ParsePath("directive"))
	if !defs.Exists() {
		return 0, nil
	}

	iter, err := defs.Fields()
	if err != nil {
		return 0, formatCUEError(err)
	}

	count := 0
	for iter.Next() {
		name := iter.Label()
		d, defErr := r.compileDefinition(name, iter.Value())
		if defErr != nil {
			return count, defErr
		}
		d.BuiltIn = builtIn
		r.directives[d.Name] = d
		count++
	}
	return count, nil
}

// compileDefinition fills the name from the struct label, unifies the value
// with the #Directive schema, and extracts the concrete fields.
func (r *Registry) compileDefinition(name string, v cue.Value) (Directive, error) {
	if err := v.Err(); err != nil {
		return Directive{}, wrapCUEError(name, err)
	}

	filled := v.FillPath(cue.ParsePath("name"), name)
	unified := r.schema.Unify(filled)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Directive{}, wrapCUEError(name, err)
	}

	summary, err := unified.LookupPath(cue.ParsePath("summary")).String()
	if err != nil {
		return Directive{}, wrapCUEError(name, err)
	}
	instruction, err := unified.LookupPath(cue.ParsePath("instruction")).String()
	if err != nil {
		return Directive{}, wrapCUEError(name, err)
	}

	return Directive{Name: name, Summary: summary, Instruction: instruction}, nil
}

// findCUEFiles walks dir and returns .cue paths relative to it. The paths
// carry a "./" prefix so the CUE loader treats them as files, not packages.
func findCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".cue" {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		files = append(files, "./"+filepath.ToSlash(rel))
		return nil
	})
	return files, err
}

// DefError reports a malformed directive definition with source position.
type DefError struct {
	Directive string
	Message   string
	Pos       token.Pos
}

func (e *DefError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: directive %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Directive, e.Message)
	}
	return fmt.Sprintf("directive %s: %s", e.Directive, e.Message)
}

// wrapCUEError attaches the directive name and the first available source
// position to a CUE validation error.
func wrapCUEError(name string, err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &DefError{Directive: name, Message: err.Error()}
	}

	first := errs[0]
	defErr := &DefError{Directive: name, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		defErr.Pos = positions[0]
	}
	return defErr
}

// formatCUEError extracts position info from CUE errors that are not tied
// to a single definition.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := cueerrors.Positions(first)
	if len(positions) > 0 {
		pos := positions[0]
		return fmt.Errorf("%s:%d:%d: %s",
			pos.Filename(), pos.Line(), pos.Column(), first.Error())
	}
	return err
}
