package msbuild

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/simonhull/heron/pkg/logger"
)

// DefaultCacheSize bounds the number of parsed documents kept between calls.
const DefaultCacheSize = 512

// Import is one resolved <Import> encountered while evaluating a project.
type Import struct {
	// ImportingFile is the file containing the <Import> element.
	ImportingFile string
	// ImportedFile is the absolute path of the imported project.
	ImportedFile string
	// Expression is the unexpanded Project attribute.
	Expression string
	Condition  string
	Sdk        string
	// IsImported is true when the <Import> element itself lives in an
	// imported file rather than in the project being evaluated.
	IsImported bool
}

// Options configures an Evaluator.
type Options struct {
	// GlobalProperties behave like /p: switches and cannot be overridden by
	// project XML.
	GlobalProperties map[string]string
	// SdkPaths are searched for <Project Sdk="..."> and <Import Sdk="...">
	// as <path>/<sdk>/Sdk/<file>.
	SdkPaths []string
	// IgnoreMissingImports skips imports of files that do not exist instead
	// of failing the evaluation.
	IgnoreMissingImports bool
	// UseEnvironment exposes environment variables as fallback properties.
	UseEnvironment bool
	// CacheSize bounds the parsed-document cache. Zero means DefaultCacheSize.
	CacheSize int
}

// Evaluator resolves the imports of MSBuild project files. It is not safe
// for concurrent use.
type Evaluator struct {
	opts    Options
	cache   *lru.Cache[string, *document]
	logger  logger.Logger
	environ func() []string
}

// NewEvaluator creates an Evaluator with an empty document cache.
func NewEvaluator(opts Options) (*Evaluator, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *document](size)
	if err != nil {
		return nil, err
	}

	return &Evaluator{
		opts:    opts,
		cache:   cache,
		logger:  logger.Default(),
		environ: os.Environ,
	}, nil
}

// WithLogger returns a copy of the Evaluator that logs to log. The copy
// shares the document cache.
func (e *Evaluator) WithLogger(log logger.Logger) *Evaluator {
	c := *e
	c.logger = log
	return &c
}

// Reset drops every cached document, forcing the next evaluation to re-read
// project files from disk.
func (e *Evaluator) Reset() {
	e.cache.Purge()
	e.logger.Debug("Evaluation cache cleared")
}

// CachedDocuments reports how many parsed documents are currently cached.
func (e *Evaluator) CachedDocuments() int {
	return e.cache.Len()
}

// Imports evaluates the project at path and returns every import resolved
// during evaluation, in evaluation order.
func (e *Evaluator) Imports(path string) ([]Import, error) {
	root, err := filepath.Abs(nativePath(path))
	if err != nil {
		return nil, &ResolveError{Op: "evaluate", Path: path, Err: err}
	}

	doc, err := e.load(root)
	if err != nil {
		return nil, err
	}

	var environ []string
	if e.opts.UseEnvironment {
		environ = e.environ()
	}

	ev := &evaluation{
		e:     e,
		root:  root,
		props: newProperties(root, e.opts.GlobalProperties, environ),
		seen:  map[string]bool{root: true},
	}
	if err := ev.file(doc, false); err != nil {
		return nil, err
	}

	e.logger.Debug("Evaluated project",
		logger.F("project", root),
		logger.F("imports", len(ev.imports)))

	return ev.imports, nil
}

func (e *Evaluator) load(path string) (*document, error) {
	if doc, ok := e.cache.Get(path); ok {
		return doc, nil
	}
	doc, err := loadDocument(path)
	if err != nil {
		return nil, err
	}
	e.cache.Add(path, doc)
	return doc, nil
}

// evaluation is the state of one Imports call.
type evaluation struct {
	e       *Evaluator
	root    string
	props   *properties
	imports []Import
	seen    map[string]bool
}

func (ev *evaluation) expander(file string) expander {
	return expander{props: ev.props, file: file}
}

// file evaluates doc. imported reports whether doc was reached through an
// <Import> rather than being the project under evaluation.
func (ev *evaluation) file(doc *document, imported bool) error {
	sdks := splitSdks(doc.Root.attr("Sdk"))

	for _, sdk := range sdks {
		if err := ev.sdkImport(doc, doc.Root, sdk, "Sdk.props", imported); err != nil {
			return err
		}
	}
	for _, el := range doc.Root.Children {
		if err := ev.element(doc, el, imported); err != nil {
			return err
		}
	}
	for _, sdk := range sdks {
		if err := ev.sdkImport(doc, doc.Root, sdk, "Sdk.targets", imported); err != nil {
			return err
		}
	}
	return nil
}

func (ev *evaluation) element(doc *document, el *element, imported bool) error {
	switch el.Name {
	case "PropertyGroup":
		ok, err := ev.condition(doc, el)
		if err != nil || !ok {
			return err
		}
		for _, prop := range el.Children {
			if err := ev.property(doc, prop); err != nil {
				return err
			}
		}
	case "Choose":
		return ev.choose(doc, el, imported)
	case "Import":
		return ev.importElement(doc, el, imported)
	case "ImportGroup":
		ok, err := ev.condition(doc, el)
		if err != nil || !ok {
			return err
		}
		for _, child := range el.Children {
			if child.Name != "Import" {
				continue
			}
			if err := ev.importElement(doc, child, imported); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ev *evaluation) property(doc *document, el *element) error {
	ok, err := ev.condition(doc, el)
	if err != nil || !ok {
		return err
	}
	value, err := ev.expander(doc.Path).expand(el.Text)
	if err != nil {
		return &ResolveError{Op: "expand", Path: doc.Path, Line: el.Line, Err: err}
	}
	if !ev.props.set(el.Name, value) {
		ev.e.logger.Debug("Ignoring assignment to global or reserved property",
			logger.F("property", el.Name),
			logger.F("file", doc.Path))
	}
	return nil
}

// choose runs the first When whose condition holds, or Otherwise.
func (ev *evaluation) choose(doc *document, el *element, imported bool) error {
	for _, branch := range el.Children {
		switch branch.Name {
		case "When":
			ok, err := ev.condition(doc, branch)
			if err != nil {
				return err
			}
			if ok {
				return ev.branch(doc, branch, imported)
			}
		case "Otherwise":
			return ev.branch(doc, branch, imported)
		}
	}
	return nil
}

func (ev *evaluation) branch(doc *document, branch *element, imported bool) error {
	for _, child := range branch.Children {
		if child.Name != "PropertyGroup" && child.Name != "Choose" {
			continue
		}
		if err := ev.element(doc, child, imported); err != nil {
			return err
		}
	}
	return nil
}

func (ev *evaluation) condition(doc *document, el *element) (bool, error) {
	ok, err := evaluateCondition(el.attr("Condition"), ev.expander(doc.Path))
	if err != nil {
		return false, &ResolveError{Op: "condition", Path: doc.Path, Line: el.Line, Err: err}
	}
	return ok, nil
}

func (ev *evaluation) importElement(doc *document, el *element, imported bool) error {
	ok, err := ev.condition(doc, el)
	if err != nil || !ok {
		return err
	}

	if sdk := el.attr("Sdk"); sdk != "" {
		return ev.sdkImport(doc, el, sdk, el.attr("Project"), imported)
	}

	expr := el.attr("Project")
	if strings.TrimSpace(expr) == "" {
		return newError("import", doc.Path, el.Line, ErrInvalidImport, "missing Project attribute")
	}
	expanded, err := ev.expander(doc.Path).expand(expr)
	if err != nil {
		return &ResolveError{Op: "import", Path: doc.Path, Line: el.Line, Err: err}
	}
	if strings.TrimSpace(expanded) == "" {
		return newError("import", doc.Path, el.Line, ErrInvalidImport, "%q expands to an empty path", expr)
	}

	pattern := resolvePath(filepath.Dir(doc.Path), strings.TrimSpace(expanded))

	var targets []string
	if strings.ContainsAny(pattern, "*?") {
		targets, err = glob(pattern)
		if err != nil {
			return newError("import", doc.Path, el.Line, ErrInvalidImport, "%q: %v", expr, err)
		}
	} else {
		if !fileExists(pattern) {
			if ev.e.opts.IgnoreMissingImports {
				ev.e.logger.Warn("Skipping missing import",
					logger.F("file", doc.Path),
					logger.F("import", pattern))
				return nil
			}
			return newError("import", doc.Path, el.Line, ErrImportNotFound, "%s (from %q)", pattern, expr)
		}
		targets = []string{pattern}
	}

	for _, target := range targets {
		rec := Import{
			ImportingFile: doc.Path,
			ImportedFile:  target,
			Expression:    expr,
			Condition:     el.attr("Condition"),
			IsImported:    imported,
		}
		if err := ev.follow(rec); err != nil {
			return err
		}
	}
	return nil
}

// sdkImport resolves an SDK import against the configured SDK paths. An SDK
// that cannot be located is skipped with a warning.
func (ev *evaluation) sdkImport(doc *document, el *element, sdk, file string, imported bool) error {
	name, _, _ := strings.Cut(strings.TrimSpace(sdk), "/")
	for _, root := range ev.e.opts.SdkPaths {
		candidate := filepath.Join(root, name, "Sdk", nativePath(file))
		if !fileExists(candidate) {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			return &ResolveError{Op: "import", Path: doc.Path, Line: el.Line, Err: err}
		}
		return ev.follow(Import{
			ImportingFile: doc.Path,
			ImportedFile:  abs,
			Expression:    file,
			Condition:     el.attr("Condition"),
			Sdk:           name,
			IsImported:    imported,
		})
	}

	ev.e.logger.Warn("SDK not found, skipping import",
		logger.F("sdk", name),
		logger.F("file", doc.Path),
		logger.F("import", file))
	return nil
}

// follow records rec and evaluates the imported file inline. A file already
// imported during this evaluation is skipped, as MSBuild does.
func (ev *evaluation) follow(rec Import) error {
	if ev.seen[rec.ImportedFile] {
		ev.e.logger.Debug("Skipping duplicate import",
			logger.F("file", rec.ImportingFile),
			logger.F("import", rec.ImportedFile))
		return nil
	}
	ev.seen[rec.ImportedFile] = true
	ev.imports = append(ev.imports, rec)

	doc, err := ev.e.load(rec.ImportedFile)
	if err != nil {
		return err
	}
	return ev.file(doc, true)
}

func glob(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if !fileExists(m) {
			continue
		}
		abs, err := filepath.Abs(m)
		if err != nil {
			return nil, err
		}
		files = append(files, abs)
	}
	sort.Strings(files)
	return files, nil
}

func splitSdks(attr string) []string {
	var sdks []string
	for _, s := range strings.Split(attr, ";") {
		if s = strings.TrimSpace(s); s != "" {
			sdks = append(sdks, s)
		}
	}
	return sdks
}

// IsResolveError reports whether err came from project evaluation.
func IsResolveError(err error) bool {
	var re *ResolveError
	return errors.As(err, &re)
}
