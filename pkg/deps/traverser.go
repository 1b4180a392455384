package deps

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/simonhull/heron/pkg/logger"
	"github.com/simonhull/heron/pkg/msbuild"
)

// ErrEmptyRootPath is returned when an analysis is requested without a root
// project path.
var ErrEmptyRootPath = errors.New("root project path is empty")

// Resolver reports every import pulled in while evaluating a project file.
// Reset discards any evaluation state shared between calls.
type Resolver interface {
	Imports(path string) ([]msbuild.Import, error)
	Reset()
}

// Traverser walks a project import tree and accumulates a DependencyMap. It
// is not safe for concurrent use; callers run one analysis at a time.
type Traverser struct {
	resolver Resolver
	visited  *VisitTracker
	deps     *DependencyMap
	logger   logger.Logger

	// OnRoot, when set, is called before each top-level project of
	// AnalyzeAll is traversed.
	OnRoot func(index, total int, path string)
}

// NewTraverser creates a Traverser backed by resolver.
func NewTraverser(resolver Resolver) *Traverser {
	return &Traverser{
		resolver: resolver,
		visited:  NewVisitTracker(),
		deps:     NewDependencyMap(),
		logger:   logger.Default(),
	}
}

// WithLogger returns a new Traverser with the specified logger and fresh
// traversal state.
func (t *Traverser) WithLogger(log logger.Logger) *Traverser {
	return &Traverser{
		resolver: t.resolver,
		visited:  NewVisitTracker(),
		deps:     NewDependencyMap(),
		logger:   log,
		OnRoot:   t.OnRoot,
	}
}

// Dependencies returns the map built so far.
func (t *Traverser) Dependencies() *DependencyMap {
	return t.deps
}

// Visited returns the tracker of processed paths.
func (t *Traverser) Visited() *VisitTracker {
	return t.visited
}

// Analyze starts a fresh traversal at root. It clears the visited set and
// the dependency map, resets the resolver, and traverses root. Resolver
// errors are returned unchanged.
func (t *Traverser) Analyze(root string, recursive bool) (*DependencyMap, error) {
	if strings.TrimSpace(root) == "" {
		return nil, ErrEmptyRootPath
	}

	t.reset()
	t.logger.Info("Starting dependency analysis",
		logger.F("root", root),
		logger.F("recursive", recursive))

	if err := t.Traverse(root, recursive); err != nil {
		return nil, err
	}

	t.logger.Info("Dependency analysis complete",
		logger.F("projects", t.deps.Len()),
		logger.F("files", t.visited.Len()))
	return t.deps, nil
}

// AnalyzeAll runs a single traversal request over several root projects.
// State is reset once, so a project reachable from more than one root is
// still resolved only once. ctx is checked between roots.
func (t *Traverser) AnalyzeAll(ctx context.Context, roots []string, recursive bool) (*DependencyMap, error) {
	if len(roots) == 0 {
		return nil, ErrEmptyRootPath
	}
	for _, root := range roots {
		if strings.TrimSpace(root) == "" {
			return nil, ErrEmptyRootPath
		}
	}

	t.reset()
	t.logger.Info("Starting dependency analysis",
		logger.F("roots", len(roots)),
		logger.F("recursive", recursive))

	for i, root := range roots {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if t.OnRoot != nil {
			t.OnRoot(i, len(roots), root)
		}
		if err := t.Traverse(root, recursive); err != nil {
			return nil, err
		}
	}

	t.logger.Info("Dependency analysis complete",
		logger.F("projects", t.deps.Len()),
		logger.F("files", t.visited.Len()))
	return t.deps, nil
}

// Traverse records the direct imports of the project at path and, when
// recursive is set, traverses each of them. A path that was already visited
// is a no-op.
func (t *Traverser) Traverse(path string, recursive bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if !t.visited.MarkVisited(abs) {
		t.logger.Debug("Already visited", logger.F("path", abs))
		return nil
	}

	imports, err := t.resolver.Imports(abs)
	if err != nil {
		return err
	}

	direct := directImports(imports)
	name := Identity(abs)

	names := make([]string, 0, len(direct))
	for _, imp := range direct {
		names = append(names, Identity(imp.ImportedFile))
	}
	if !t.deps.Add(name, names) {
		t.logger.Debug("Project already recorded under this name",
			logger.F("project", name),
			logger.F("path", abs))
	}

	t.logger.Debug("Traversed project",
		logger.F("project", name),
		logger.F("imports", len(imports)),
		logger.F("direct", len(direct)))

	if !recursive {
		return nil
	}
	for _, imp := range direct {
		if err := t.Traverse(imp.ImportedFile, recursive); err != nil {
			return err
		}
	}
	return nil
}

func (t *Traverser) reset() {
	t.visited.Reset()
	t.deps.Clear()
	t.resolver.Reset()
}

// directImports keeps the imports declared by the evaluated file itself,
// dropping those that arrived through another import.
func directImports(imports []msbuild.Import) []msbuild.Import {
	direct := make([]msbuild.Import, 0, len(imports))
	for _, imp := range imports {
		if !imp.IsImported {
			direct = append(direct, imp)
		}
	}
	return direct
}

// Identity returns the graph node name of a project path: its base file
// name. Both separators are honoured so Windows-style paths from project XML
// name the same node on every host.
func Identity(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
