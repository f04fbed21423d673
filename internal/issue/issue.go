// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	ConfigInvalidId
	EntryNotFoundId
	ModuleReadFailedId
	LoaderNotFoundId
	LoaderFailedId
	SyntaxErrorId
	UnsupportedRequireId
	PathOutsideRootId
	PluginNotFoundId
	TemplateErrorId
	OutputDirMissingId
	BundleExecutionFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not read or parse the minipack configuration file.

## Lookup order:
1. The path given with ` + "`--config`" + `
2. ` + "`minipack.cue`" + ` in the project root
3. Built-in defaults, overridden by ` + "`MINIPACK_*`" + ` environment variables

## Things you can try:
- Write a default configuration:
~~~
$ minipack init
~~~

- Print the configuration minipack actually sees:
~~~
$ minipack config show
~~~`,
	}

	configInvalidIssue = &Issue{
		id: ConfigInvalidId,
		mdMsg: `
# Invalid configuration!

The configuration parsed, but one of its fields has an unusable value.

## Common issues:
- ` + "`entry`" + ` or ` + "`output.filename`" + ` left empty
- A loader rule with neither ` + "`test`" + ` nor ` + "`include`" + `
- A loader rule with an empty ` + "`use`" + ` list
- ` + "`resolve.extension`" + ` not starting with a dot

## Example configuration:
~~~cue
entry: "./src/index.js"
output: {
	path:     "dist"
	filename: "bundle.js"
}
module: rules: [
	{test: "\\.txt$", use: ["raw"]},
]
~~~`,
	}

	entryNotFoundIssue = &Issue{
		id: EntryNotFoundId,
		mdMsg: `
# Entry module not found!

The entry file named in the configuration does not exist.

## Things you can try:
- Check the ` + "`entry`" + ` field; it is resolved against the project root
- Pass the project root explicitly:
~~~
$ minipack build --root path/to/project
~~~`,
	}

	moduleReadFailedIssue = &Issue{
		id: ModuleReadFailedId,
		mdMsg: `
# Failed to read a module!

A file reached through ` + "`require`" + ` could not be read.

## Things you can try:
- Check the path in the failing ` + "`require`" + ` call
- Remember that the resolve extension is appended when a request has none
- Inspect the dependency graph up to the failure:
~~~
$ minipack graph --verbose
~~~`,
	}

	loaderNotFoundIssue = &Issue{
		id: LoaderNotFoundId,
		mdMsg: `
# Loader not found!

A loader rule names a transform that minipack does not know.

## Built-in transforms:
- **raw**: export the file text as a string
- **json**: export parsed JSON data
- **yaml**: export parsed YAML data
- **markdown**: export rendered HTML
- **style**: inject the text as a style tag
- **uppercase**, **lowercase**, **trim**: text filters

Shell transforms are written as ` + "`sh:<script>`" + ` and read the source on stdin.`,
	}

	loaderFailedIssue = &Issue{
		id: LoaderFailedId,
		mdMsg: `
# Loader failed!

A transform raised an error while processing a module.

## Things you can try:
- Run with ` + "`--verbose`" + ` to see the underlying cause
- Check that the file content matches what the transform expects
- Check the order of the ` + "`use`" + ` list; transforms run last to first`,
	}

	syntaxErrorIssue = &Issue{
		id: SyntaxErrorId,
		mdMsg: `
# Syntax error!

A module's transformed source is not valid JavaScript.

## Things you can try:
- Look at the reported position in the module
- If loaders are applied, make sure the last one to run emits JavaScript`,
	}

	unsupportedRequireIssue = &Issue{
		id: UnsupportedRequireId,
		mdMsg: `
# Unsupported require!

Only ` + "`require`" + ` calls with a single string literal can be bundled.

## Not supported:
~~~js
require(name)
require("./a" + suffix)
require(` + "`./${name}`" + `)
~~~

## Supported:
~~~js
const greet = require("./greet.js");
~~~`,
	}

	pathOutsideRootIssue = &Issue{
		id: PathOutsideRootId,
		mdMsg: `
# Path outside the project root!

A ` + "`require`" + ` call or the entry points above the project root.

## Things you can try:
- Move the shared file into the project
- Run minipack from a parent directory with ` + "`--root`" + ``,
	}

	pluginNotFoundIssue = &Issue{
		id: PluginNotFoundId,
		mdMsg: `
# Plugin not found!

The ` + "`plugins`" + ` list names a plugin that is not registered.

## Built-in plugins:
- **log-hooks**: log every lifecycle event
- **timing**: report how long the build took
- **banner**: prefix the bundle with a comment naming the entry`,
	}

	templateErrorIssue = &Issue{
		id: TemplateErrorId,
		mdMsg: `
# Bundle template failed!

The output template could not be parsed or executed.

## Things you can try:
- Check ` + "`output.template`" + ` points at a readable file
- Templates receive ` + "`.EntryID`" + `, ` + "`.Modules`" + ` and ` + "`.Banners`" + `
- Remove ` + "`output.template`" + ` to use the built-in runtime`,
	}

	outputDirMissingIssue = &Issue{
		id: OutputDirMissingId,
		mdMsg: `
# Output directory missing!

minipack does not create the output directory for you.

## Things you can try:
~~~
$ mkdir -p dist
$ minipack build
~~~`,
	}

	bundleExecutionFailedIssue = &Issue{
		id: BundleExecutionFailedId,
		mdMsg: `
# Bundle execution failed!

The bundle was built, but running it threw an error.

## Things you can try:
- Check the JavaScript stack trace above
- A ` + "`Cannot find module`" + ` error means a module id was never bundled`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

minipack could not read a source file or write the bundle.

## Things you can try:
- Check file permissions on the project and output directory
- Run minipack from a directory you own`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		configInvalidIssue.Id():         configInvalidIssue,
		entryNotFoundIssue.Id():         entryNotFoundIssue,
		moduleReadFailedIssue.Id():      moduleReadFailedIssue,
		loaderNotFoundIssue.Id():        loaderNotFoundIssue,
		loaderFailedIssue.Id():          loaderFailedIssue,
		syntaxErrorIssue.Id():           syntaxErrorIssue,
		unsupportedRequireIssue.Id():    unsupportedRequireIssue,
		pathOutsideRootIssue.Id():       pathOutsideRootIssue,
		pluginNotFoundIssue.Id():        pluginNotFoundIssue,
		templateErrorIssue.Id():         templateErrorIssue,
		outputDirMissingIssue.Id():      outputDirMissingIssue,
		bundleExecutionFailedIssue.Id(): bundleExecutionFailedIssue,
		permissionDeniedIssue.Id():      permissionDeniedIssue,
	}
)

// Values returns every registered issue ordered by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}
