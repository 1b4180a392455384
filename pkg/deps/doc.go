// Package deps builds the project dependency map of an MSBuild import tree.
//
// A Traverser starts at a root project, asks its Resolver for the project's
// imports, keeps only the imports the project declares itself, and records
// them under the project's file name. With recursion enabled it then visits
// each of those imports, depth-first in declaration order. A VisitTracker
// makes sure each file is resolved at most once per run, which also ends the
// walk on cyclic imports.
//
// Node identity is the base file name. Two different files with the same
// name in different directories share one entry; the first one recorded
// wins.
package deps
