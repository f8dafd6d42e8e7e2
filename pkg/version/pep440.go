// SPDX-License-Identifier: MPL-2.0

package version

import (
	"regexp"
	"strings"
)

var (
	// pep440Suffix matches everything after the release segment of a
	// version that setuptools accepts. Groups: pre label, pre number,
	// implicit post number, post label, post number, dev label, dev number.
	pep440Suffix = regexp.MustCompile(`^` +
		`(?:[-_.]?(alpha|a|beta|b|preview|pre|c|rc)[-_.]?([0-9]+)?)?` +
		`(?:-([0-9]+)|[-_.]?(post|rev|r)[-_.]?([0-9]+)?)?` +
		`(?:[-_.]?(dev)[-_.]?([0-9]+)?)?$`)

	pep440PreLabels = map[string]string{
		"alpha": "a", "a": "a",
		"beta": "b", "b": "b",
		"c": "rc", "pre": "rc", "preview": "rc", "rc": "rc",
	}

	unsafeVersionChars = regexp.MustCompile(`[^A-Za-z0-9.]+`)
)

// PEP440 returns v in the normalized form Python packaging tools write into
// wheel metadata and file names: "4.1.0-alpha" is "4.1.0a0", "4.1.0-rc.1" is
// "4.1.0rc1" and "4.1.0-2" is "4.1.0.post2". ok is false when the
// pre-release part has no PEP 440 reading.
func (v Version) PEP440() (normalized string, ok bool) {
	rest, local, hasLocal := strings.Cut(strings.ToLower(v.raw), "+")
	cut := strings.IndexByte(rest, '-')
	if cut < 0 {
		cut = len(rest)
	}
	release, suffix := rest[:cut], rest[cut:]

	m := pep440Suffix.FindStringSubmatch(suffix)
	if m == nil {
		return "", false
	}

	var sb strings.Builder
	sb.WriteString(release)
	if m[1] != "" {
		sb.WriteString(pep440PreLabels[m[1]] + trimNumber(m[2]))
	}
	switch {
	case m[3] != "":
		sb.WriteString(".post" + trimNumber(m[3]))
	case m[4] != "":
		sb.WriteString(".post" + trimNumber(m[5]))
	}
	if m[6] != "" {
		sb.WriteString(".dev" + trimNumber(m[7]))
	}
	if hasLocal {
		segs := strings.FieldsFunc(local, func(r rune) bool { return r == '.' || r == '-' || r == '_' })
		for i, s := range segs {
			if strings.Trim(s, "0123456789") == "" {
				segs[i] = trimNumber(s)
			}
		}
		sb.WriteString("+" + strings.Join(segs, "."))
	}
	return sb.String(), true
}

// trimNumber drops leading zeros; an empty number is the implicit 0.
func trimNumber(n string) string {
	n = strings.TrimLeft(n, "0")
	if n == "" {
		return "0"
	}
	return n
}

// PackagingVersion is the version setuptools is given: the PEP 440 form when
// there is one, else the version with every run of other characters turned
// into '-', as setuptools' safe_version does.
func (v Version) PackagingVersion() string {
	if s, ok := v.PEP440(); ok {
		return s
	}
	return unsafeVersionChars.ReplaceAllString(v.raw, "-")
}
