// SPDX-License-Identifier: MPL-2.0

// Package packaging turns a compiled bpy tree into a platform-tagged wheel.
//
// A package task renders setup.py from an embedded template, writes a
// pyproject.toml, stages the license, readme and bpy tree in a work area and
// runs "python setup.py bdist_wheel" there.
package packaging
