// Package msbuild resolves the import chain of MSBuild project files.
//
// # Overview
//
// The Evaluator reads a project file and walks it the way MSBuild's first
// evaluation pass does: properties are defined in document order, conditions
// are checked against the properties seen so far, and every <Import> is
// resolved and evaluated inline before the next sibling is processed.
//
//	e, err := msbuild.NewEvaluator(msbuild.Options{
//	    GlobalProperties: map[string]string{"Configuration": "Release"},
//	})
//	imports, err := e.Imports("/src/App/App.csproj")
//
// The result lists every file pulled in while evaluating the project, in
// evaluation order. Imports declared by the project itself report
// IsImported == false; imports declared inside one of those files report
// IsImported == true.
//
// # Scope
//
// Only what decides the import graph is evaluated: properties, Choose
// blocks, conditions, Import and ImportGroup. Items, targets and tasks are
// ignored.
//
// # Caching
//
// Parsed documents are cached across calls. Call Reset before starting an
// unrelated analysis so edits on disk are picked up.
package msbuild
