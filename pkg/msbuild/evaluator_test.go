package msbuild

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/heron/pkg/logger"
)

// writeProject writes an MSBuild file under dir and returns its path.
func writeProject(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newTestEvaluator(t *testing.T, opts Options) *Evaluator {
	t.Helper()

	e, err := NewEvaluator(opts)
	require.NoError(t, err)
	return e.WithLogger(logger.NewSilentLogger())
}

// imported summarises imports as base name -> IsImported, in order.
type imported struct {
	Name       string
	IsImported bool
}

func summarise(imports []Import) []imported {
	out := make([]imported, 0, len(imports))
	for _, imp := range imports {
		out = append(out, imported{filepath.Base(imp.ImportedFile), imp.IsImported})
	}
	return out
}

func TestEvaluator_ImportsInEvaluationOrder(t *testing.T) {
	dir := t.TempDir()
	root := writeProject(t, dir, "Parent.proj", `<Project>
  <Import Project="Common.targets" />
  <Import Project="Build.props" />
</Project>`)
	writeProject(t, dir, "Common.targets", `<Project>
  <Import Project="Shared.props" />
</Project>`)
	writeProject(t, dir, "Build.props", `<Project />`)
	writeProject(t, dir, "Shared.props", `<Project />`)

	imports, err := newTestEvaluator(t, Options{}).Imports(root)
	require.NoError(t, err)

	assert.Equal(t, []imported{
		{"Common.targets", false},
		{"Shared.props", true},
		{"Build.props", false},
	}, summarise(imports))

	assert.Equal(t, root, imports[0].ImportingFile)
	assert.Equal(t, filepath.Join(dir, "Common.targets"), imports[1].ImportingFile)
	assert.Equal(t, "Shared.props", imports[1].Expression)
}

func TestEvaluator_LegacyNamespaceAndBackslashes(t *testing.T) {
	dir := t.TempDir()
	root := writeProject(t, dir, "src/App/App.csproj", `<?xml version="1.0" encoding="utf-8"?>
<Project ToolsVersion="15.0" xmlns="http://schemas.microsoft.com/developer/msbuild/2003">
  <Import Project="$(MSBuildThisFileDirectory)..\..\build\Common.props" />
</Project>`)
	writeProject(t, dir, "build/Common.props", `<Project xmlns="http://schemas.microsoft.com/developer/msbuild/2003" />`)

	imports, err := newTestEvaluator(t, Options{}).Imports(root)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, filepath.Join(dir, "build", "Common.props"), imports[0].ImportedFile)
}

func TestEvaluator_Conditions(t *testing.T) {
	dir := t.TempDir()
	root := writeProject(t, dir, "App.proj", `<Project>
  <PropertyGroup>
    <Configuration Condition="'$(Configuration)' == ''">Debug</Configuration>
    <UseShared>true</UseShared>
  </PropertyGroup>
  <Import Project="Debug.props" Condition="'$(Configuration)' == 'Debug'" />
  <Import Project="Release.props" Condition="'$(Configuration)' == 'Release'" />
  <Import Project="Shared.props" Condition="$(UseShared) and Exists('Shared.props')" />
  <Import Project="Missing.props" Condition="Exists('Missing.props')" />
  <ImportGroup Condition="'$(Configuration)' != 'Debug'">
    <Import Project="Grouped.props" />
  </ImportGroup>
</Project>`)
	for _, name := range []string{"Debug.props", "Release.props", "Shared.props", "Grouped.props"} {
		writeProject(t, dir, name, `<Project />`)
	}

	t.Run("defaults", func(t *testing.T) {
		imports, err := newTestEvaluator(t, Options{}).Imports(root)
		require.NoError(t, err)
		assert.Equal(t, []imported{{"Debug.props", false}, {"Shared.props", false}}, summarise(imports))
	})

	t.Run("global property wins over project XML", func(t *testing.T) {
		e := newTestEvaluator(t, Options{GlobalProperties: map[string]string{"configuration": "Release"}})
		imports, err := e.Imports(root)
		require.NoError(t, err)
		assert.Equal(t, []imported{
			{"Release.props", false},
			{"Shared.props", false},
			{"Grouped.props", false},
		}, summarise(imports))
	})
}

func TestEvaluator_PropertiesFlowIntoImportedFiles(t *testing.T) {
	dir := t.TempDir()
	root := writeProject(t, dir, "App.proj", `<Project>
  <PropertyGroup>
    <BuildDir>$(MSBuildProjectDirectory)/eng</BuildDir>
  </PropertyGroup>
  <Import Project="$(BuildDir)/Settings.props" />
  <Import Project="$(ToolsDir)/Tools.targets" />
</Project>`)
	writeProject(t, dir, "eng/Settings.props", `<Project>
  <PropertyGroup>
    <ToolsDir>$(MSBuildThisFileDirectory)tools</ToolsDir>
  </PropertyGroup>
</Project>`)
	writeProject(t, dir, "eng/tools/Tools.targets", `<Project />`)

	imports, err := newTestEvaluator(t, Options{}).Imports(root)
	require.NoError(t, err)
	assert.Equal(t, []imported{{"Settings.props", false}, {"Tools.targets", false}}, summarise(imports))
}

func TestEvaluator_ChooseWhen(t *testing.T) {
	dir := t.TempDir()
	root := writeProject(t, dir, "App.proj", `<Project>
  <Choose>
    <When Condition="'$(Platform)' == 'x64'">
      <PropertyGroup><Extra>X64.props</Extra></PropertyGroup>
    </When>
    <Otherwise>
      <PropertyGroup><Extra>AnyCpu.props</Extra></PropertyGroup>
    </Otherwise>
  </Choose>
  <Import Project="$(Extra)" />
</Project>`)
	writeProject(t, dir, "X64.props", `<Project />`)
	writeProject(t, dir, "AnyCpu.props", `<Project />`)

	imports, err := newTestEvaluator(t, Options{}).Imports(root)
	require.NoError(t, err)
	assert.Equal(t, []imported{{"AnyCpu.props", false}}, summarise(imports))

	e := newTestEvaluator(t, Options{GlobalProperties: map[string]string{"Platform": "x64"}})
	imports, err = e.Imports(root)
	require.NoError(t, err)
	assert.Equal(t, []imported{{"X64.props", false}}, summarise(imports))
}

func TestEvaluator_WildcardImports(t *testing.T) {
	dir := t.TempDir()
	root := writeProject(t, dir, "App.proj", `<Project>
  <Import Project="props\*.props" />
  <Import Project="none\*.targets" />
</Project>`)
	writeProject(t, dir, "props/b.props", `<Project />`)
	writeProject(t, dir, "props/a.props", `<Project />`)
	writeProject(t, dir, "props/readme.txt", `not a project`)

	imports, err := newTestEvaluator(t, Options{}).Imports(root)
	require.NoError(t, err)
	assert.Equal(t, []imported{{"a.props", false}, {"b.props", false}}, summarise(imports))
}

func TestEvaluator_MissingImport(t *testing.T) {
	dir := t.TempDir()
	root := writeProject(t, dir, "App.proj", `<Project>
  <Import Project="Gone.props" />
  <Import Project="Here.props" />
</Project>`)
	writeProject(t, dir, "Here.props", `<Project />`)

	_, err := newTestEvaluator(t, Options{}).Imports(root)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImportNotFound)
	assert.True(t, IsResolveError(err))

	var re *ResolveError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, root, re.Path)
	assert.Equal(t, 2, re.Line)

	imports, err := newTestEvaluator(t, Options{IgnoreMissingImports: true}).Imports(root)
	require.NoError(t, err)
	assert.Equal(t, []imported{{"Here.props", false}}, summarise(imports))
}

func TestEvaluator_CyclicImportsTerminate(t *testing.T) {
	dir := t.TempDir()
	a := writeProject(t, dir, "A.props", `<Project><Import Project="B.props" /></Project>`)
	writeProject(t, dir, "B.props", `<Project><Import Project="A.props" /><Import Project="B.props" /></Project>`)

	imports, err := newTestEvaluator(t, Options{}).Imports(a)
	require.NoError(t, err)
	assert.Equal(t, []imported{{"B.props", false}}, summarise(imports))
}

func TestEvaluator_DuplicateImportRecordedOnce(t *testing.T) {
	dir := t.TempDir()
	root := writeProject(t, dir, "App.proj", `<Project>
  <Import Project="One.props" />
  <Import Project="Common.props" />
</Project>`)
	writeProject(t, dir, "One.props", `<Project><Import Project="Common.props" /></Project>`)
	writeProject(t, dir, "Common.props", `<Project />`)

	imports, err := newTestEvaluator(t, Options{}).Imports(root)
	require.NoError(t, err)
	assert.Equal(t, []imported{{"One.props", false}, {"Common.props", true}}, summarise(imports))
}

func TestEvaluator_PropertyFunctions(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, "Directory.Build.props", `<Project />`)
	writeProject(t, dir, "eng/Versions.props", `<Project />`)
	root := writeProject(t, dir, "src/lib/Lib.csproj", `<Project>
  <Import Project="$([MSBuild]::GetDirectoryNameOfFileAbove($(MSBuildThisFileDirectory), Directory.Build.props))/Directory.Build.props" />
  <Import Project="$([System.IO.Path]::Combine('$(MSBuildThisFileDirectory)', '..', '..', 'eng', 'Versions.props'))" />
</Project>`)

	imports, err := newTestEvaluator(t, Options{}).Imports(root)
	require.NoError(t, err)
	assert.Equal(t, []imported{{"Directory.Build.props", false}, {"Versions.props", false}}, summarise(imports))
	assert.Equal(t, filepath.Join(dir, "Directory.Build.props"), imports[0].ImportedFile)
}

func TestEvaluator_GetPathOfFileAboveSkipsEmptyResult(t *testing.T) {
	dir := t.TempDir()
	root := writeProject(t, dir, "App.proj", `<Project>
  <PropertyGroup>
    <Parent>$([MSBuild]::GetPathOfFileAbove('Nowhere.props', '$(MSBuildThisFileDirectory)'))</Parent>
  </PropertyGroup>
  <Import Project="$(Parent)" Condition="'$(Parent)' != ''" />
</Project>`)

	imports, err := newTestEvaluator(t, Options{}).Imports(root)
	require.NoError(t, err)
	assert.Empty(t, imports)
}

func TestEvaluator_DirectoryBuildPropsChain(t *testing.T) {
	conditions := map[string]string{
		"compare": `'$([MSBuild]::GetPathOfFileAbove('Directory.Build.props', '$(MSBuildThisFileDirectory)../'))' != ''`,
		"exists":  `Exists('$([MSBuild]::GetPathOfFileAbove('Directory.Build.props', '$(MSBuildThisFileDirectory)../'))')`,
	}

	for name, cond := range conditions {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeProject(t, dir, "Directory.Build.props", `<Project />`)
			writeProject(t, dir, "sub/Directory.Build.props", `<Project>
  <Import Project="$([MSBuild]::GetPathOfFileAbove('Directory.Build.props', '$(MSBuildThisFileDirectory)../'))"
          Condition="`+cond+`" />
</Project>`)
			root := writeProject(t, dir, "sub/App.proj", `<Project>
  <Import Project="Directory.Build.props" />
</Project>`)

			imports, err := newTestEvaluator(t, Options{}).Imports(root)
			require.NoError(t, err)

			require.Len(t, imports, 2)
			assert.Equal(t, filepath.Join(dir, "sub", "Directory.Build.props"), filepath.Clean(imports[0].ImportedFile))
			assert.False(t, imports[0].IsImported)
			assert.Equal(t, filepath.Join(dir, "Directory.Build.props"), filepath.Clean(imports[1].ImportedFile))
			assert.True(t, imports[1].IsImported)
		})
	}
}

func TestEvaluator_DirectoryBuildPropsChainStopsAtTop(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, "sub/Directory.Build.props", `<Project>
  <Import Project="$([MSBuild]::GetPathOfFileAbove('Directory.Build.props', '$(MSBuildThisFileDirectory)../'))"
          Condition="Exists('$([MSBuild]::GetPathOfFileAbove('Directory.Build.props', '$(MSBuildThisFileDirectory)../'))')" />
</Project>`)
	root := writeProject(t, dir, "sub/App.proj", `<Project>
  <Import Project="Directory.Build.props" />
</Project>`)

	imports, err := newTestEvaluator(t, Options{}).Imports(root)
	require.NoError(t, err)
	assert.Equal(t, []imported{{"Directory.Build.props", false}}, summarise(imports))
}

func TestEvaluator_SdkImports(t *testing.T) {
	dir := t.TempDir()
	sdkRoot := filepath.Join(dir, "sdks")
	writeProject(t, sdkRoot, "Contoso.Sdk/Sdk/Sdk.props", `<Project />`)
	writeProject(t, sdkRoot, "Contoso.Sdk/Sdk/Sdk.targets", `<Project />`)
	root := writeProject(t, dir, "App.csproj", `<Project Sdk="Contoso.Sdk/1.0.0">
  <Import Project="Local.props" />
</Project>`)
	writeProject(t, dir, "Local.props", `<Project />`)

	imports, err := newTestEvaluator(t, Options{SdkPaths: []string{sdkRoot}}).Imports(root)
	require.NoError(t, err)
	assert.Equal(t, []imported{
		{"Sdk.props", false},
		{"Local.props", false},
		{"Sdk.targets", false},
	}, summarise(imports))
	assert.Equal(t, "Contoso.Sdk", imports[0].Sdk)

	imports, err = newTestEvaluator(t, Options{}).Imports(root)
	require.NoError(t, err)
	assert.Equal(t, []imported{{"Local.props", false}}, summarise(imports), "unresolved SDKs are skipped")
}

func TestEvaluator_EnvironmentProperties(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, "shared/Env.props", `<Project />`)
	root := writeProject(t, dir, "App.proj", `<Project><Import Project="$(SHARED_ROOT)/Env.props" /></Project>`)

	e := newTestEvaluator(t, Options{UseEnvironment: true})
	e.environ = func() []string { return []string{"SHARED_ROOT=" + filepath.Join(dir, "shared")} }

	imports, err := e.Imports(root)
	require.NoError(t, err)
	assert.Equal(t, []imported{{"Env.props", false}}, summarise(imports))

	_, err = newTestEvaluator(t, Options{}).Imports(root)
	assert.ErrorIs(t, err, ErrImportNotFound, "environment is ignored unless enabled")
}

func TestEvaluator_Failures(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"malformed xml", `<Project><Import Project="a.props"></Project>`, ErrInvalidProject},
		{"wrong root", `<Foo />`, ErrInvalidProject},
		{"empty project attribute", `<Project><Import Project="" /></Project>`, ErrInvalidImport},
		{"expands to nothing", `<Project><Import Project="$(Undefined)" /></Project>`, ErrInvalidImport},
		{"unsupported function", `<Project><Import Project="$([System.DateTime]::Now).props" /></Project>`, ErrUnsupportedExpression},
		{"item list", `<Project><Import Project="@(Files)" /></Project>`, ErrUnsupportedExpression},
		{"bad condition", `<Project><Import Project="a.props" Condition="'a' = 'b'" /></Project>`, ErrInvalidCondition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeProject(t, t.TempDir(), "App.proj", tt.body)

			_, err := newTestEvaluator(t, Options{}).Imports(root)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("missing root", func(t *testing.T) {
		_, err := newTestEvaluator(t, Options{}).Imports(filepath.Join(t.TempDir(), "nope.proj"))
		assert.ErrorIs(t, err, ErrProjectNotFound)
	})
}

func TestEvaluator_ResetDropsCachedDocuments(t *testing.T) {
	dir := t.TempDir()
	root := writeProject(t, dir, "App.proj", `<Project><Import Project="One.props" /></Project>`)
	writeProject(t, dir, "One.props", `<Project />`)
	writeProject(t, dir, "Two.props", `<Project />`)

	e := newTestEvaluator(t, Options{})
	imports, err := e.Imports(root)
	require.NoError(t, err)
	assert.Equal(t, []imported{{"One.props", false}}, summarise(imports))
	assert.Equal(t, 2, e.CachedDocuments())

	writeProject(t, dir, "App.proj", `<Project><Import Project="Two.props" /></Project>`)

	imports, err = e.Imports(root)
	require.NoError(t, err)
	assert.Equal(t, []imported{{"One.props", false}}, summarise(imports), "stale document served from cache")

	e.Reset()
	assert.Zero(t, e.CachedDocuments())

	imports, err = e.Imports(root)
	require.NoError(t, err)
	assert.Equal(t, []imported{{"Two.props", false}}, summarise(imports))
}
