// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Id identifies an entry of the issue catalog.
type Id int

const (
	ToolNotFoundId Id = iota + 1
	CommandFailedId
	ArtifactMissingId
	ConfigLoadFailedId
	InvalidVersionId
	DuplicatePairId
	PermissionDeniedId
)

type (
	// MarkdownMsg is the Markdown body of a catalog entry.
	MarkdownMsg string

	// HttpLink is a documentation link shown below a catalog entry.
	HttpLink string

	// Issue is a catalog entry: a Markdown guide for one class of failure.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

// Id returns the catalog ID.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw Markdown text.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the entry for the terminal using the named glamour style
// ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	toolNotFoundIssue = &Issue{
		id: ToolNotFoundId,
		mdMsg: `
# A build tool could not be started

bpybuild drives git, svn, cmake, make, python and tox. One of them is missing
from your PATH or the configured path points to nothing.

## Things you can try
- Check which tool failed in the error above
- Install it, or point bpybuild at it in ` + "`bpybuild.cue`" + `:
~~~cue
toolchain: {
	cmake: "/opt/cmake/bin/cmake"
	python_prefix: "/usr/bin/python"
}
~~~
- Or override a single tool from the environment:
~~~
$ BPYBUILD_TOOLCHAIN_SVN=/usr/local/bin/svn bpybuild build ...
~~~`,
		docLinks: []HttpLink{"https://developer.blender.org/docs/handbook/building_blender/linux/"},
	}

	commandFailedIssue = &Issue{
		id: CommandFailedId,
		mdMsg: `
# A build step exited with an unexpected code

The command ran but did not succeed. Its full stdout and stderr are in the
per-task log file under ` + "`log/`" + `.

## Things you can try
- Open the log file named in the summary and search for the first error
- Verify that the Blender tag exists (` + "`git tag -l 'v4.*'`" + `)
- Verify that the requested Python version is supported by that Blender release
- Re-run a single pair to isolate the failure:
~~~
$ bpybuild build --blender 4.0.2 --python 3.10 --jobs 1
~~~`,
		docLinks: []HttpLink{"https://developer.blender.org/docs/handbook/building_blender/python_module/"},
	}

	artifactMissingIssue = &Issue{
		id: ArtifactMissingId,
		mdMsg: `
# The compiled bpy module is missing

Packaging expects the output of a successful build at
` + "`dist/bpy_<blender>_<python>/`" + `.

## Things you can try
- Run the build first with the same versions:
~~~
$ bpybuild build --blender 4.0.2 --python 3.10
~~~
- Or run everything at once:
~~~
$ bpybuild all --blender 4.0.2 --python 3.10 --system manylinux_2_28_x86_64
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load the configuration

The configuration file is not valid CUE or does not match the schema.

## Things you can try
- Show the effective configuration:
~~~
$ bpybuild config show
~~~
- Remove unknown keys; the schema is closed
- Check the value types (` + "`jobs`" + ` is an integer, ` + "`source.git_backend`" + ` is "exec" or "go-git")`,
	}

	invalidVersionIssue = &Issue{
		id: InvalidVersionId,
		mdMsg: `
# Invalid version

Versions must look like ` + "`major.minor[.patch][-prerelease]`" + `, for example
` + "`4.0.2`" + ` for Blender and ` + "`3.10`" + ` for Python.`,
	}

	duplicatePairIssue = &Issue{
		id: DuplicatePairId,
		mdMsg: `
# The same Python version was requested twice

Each (Blender, Python) pair owns its output directory, so a pair can only be
built once per invocation. Remove the duplicate ` + "`--python`" + ` value.`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied

bpybuild could not write to the log, dist or temporary directory, or could not
execute a tool.

## Things you can try
- Check the ownership of ` + "`dist/`" + ` and ` + "`log/`" + `
- Point ` + "`dist_dir`" + ` and ` + "`log_dir`" + ` at a writable location`,
	}

	issues = map[Id]*Issue{
		toolNotFoundIssue.id:     toolNotFoundIssue,
		commandFailedIssue.id:    commandFailedIssue,
		artifactMissingIssue.id:  artifactMissingIssue,
		configLoadFailedIssue.id: configLoadFailedIssue,
		invalidVersionIssue.id:   invalidVersionIssue,
		duplicatePairIssue.id:    duplicatePairIssue,
		permissionDeniedIssue.id: permissionDeniedIssue,
	}
)

// Values returns all catalog entries ordered by ID.
func Values() []*Issue {
	ids := slices.Sorted(maps.Keys(issues))
	out := make([]*Issue, 0, len(ids))
	for _, id := range ids {
		out = append(out, issues[id])
	}
	return out
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
