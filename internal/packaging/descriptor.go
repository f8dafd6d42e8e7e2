// SPDX-License-Identifier: MPL-2.0

package packaging

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"bpybuild/pkg/version"

	"github.com/pelletier/go-toml/v2"
)

//go:embed templates/setup.py.tmpl
var templateFS embed.FS

var setupTemplate = template.Must(template.ParseFS(templateFS, "templates/setup.py.tmpl"))

type (
	// setupData parameterizes setup.py.
	setupData struct {
		Blender          string
		// Version is the Blender version in the form setuptools records.
		Version          string
		Python           string
		PythonMajorMinor string
		License          string
		Readme           string
	}

	pyproject struct {
		BuildSystem buildSystem `toml:"build-system"`
		Tool        toolTable   `toml:"tool"`
	}

	buildSystem struct {
		Requires     []string `toml:"requires"`
		BuildBackend string   `toml:"build-backend"`
	}

	toolTable struct {
		Distutils distutilsTable `toml:"distutils"`
	}

	distutilsTable struct {
		BdistWheel bdistWheel `toml:"bdist_wheel"`
	}

	bdistWheel struct {
		Universal bool `toml:"universal"`
	}
)

// RenderSetup renders setup.py for pair. license and readme are file names
// relative to the staging directory.
func RenderSetup(pair version.Pair, license, readme string) ([]byte, error) {
	var buf bytes.Buffer
	err := setupTemplate.Execute(&buf, setupData{
		Blender:          pair.Blender().String(),
		Version:          pair.Blender().PackagingVersion(),
		Python:           pair.Python().String(),
		PythonMajorMinor: pair.Python().MajorMinor(),
		License:          license,
		Readme:           readme,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render setup.py: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPyproject returns the fixed pyproject.toml of every staging directory.
func RenderPyproject() ([]byte, error) {
	doc := pyproject{
		BuildSystem: buildSystem{
			Requires:     []string{"setuptools", "wheel"},
			BuildBackend: "setuptools.build_meta",
		},
	}
	data, err := toml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render pyproject.toml: %w", err)
	}
	return data, nil
}
