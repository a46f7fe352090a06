// Package naming implements the naming resolver (§4.1): given a tool
// descriptor, a version, and a target platform, it produces the versioned
// asset name, the compat alias name, the archive extension, and the
// target-triple expansions for that platform.
//
// The substitution language here is the tool descriptor's own small
// "${var}" pattern grammar (§4.1), not Go's text/template — so a hand-rolled
// substitutor is the correct tool, not a library gap (see DESIGN.md).
package naming

import (
	"fmt"
	"os"
	"strings"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/constants"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/logger"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

var namingLog = logger.New("naming")

// Resolution is the full output of resolving one tool/version/platform.
type Resolution struct {
	VersionedName string
	CompatName    string
	CompatIsRaw   bool // true when the compat alias is a raw binary copy, not an archive
	ArchiveExt    string // "", "tar.gz", "zip" — no leading dot
	TargetTriples []string
}

// Resolve implements §4.1 end to end.
func Resolve(tool model.ToolDescriptor, version string, platform model.Platform) (Resolution, error) {
	arch, err := resolveArch(tool, platform.Arch)
	if err != nil {
		return Resolution{}, err
	}
	target := platform.OS + "-" + arch

	triples := resolveTriples(tool, platform, target)

	archiveFmt := resolveArchiveFormat(tool, platform.OS)

	vars := substitutionVars(tool.Name, version, platform.OS, arch, target, triples[0], archiveFmt)

	versionedName, err := substitute(tool.NamingPattern, vars)
	if err != nil {
		return Resolution{}, errs.Wrap(errs.KindConfiguration, errs.CodeConfigInvalid, err, "resolving versioned asset name").WithTarget(platform.String())
	}
	versionedName = appendExtIfAbsent(versionedName, tool.NamingPattern, archiveFmt)

	compatName, compatPattern, err := resolveCompat(tool, vars)
	if err != nil {
		return Resolution{}, err
	}
	compatName = appendExtIfAbsent(compatName, compatPattern, archiveFmt)
	// A pattern carries no extension, per §4.1, when the platform's
	// resolved archive format is empty — that's the only way a compat
	// (or versioned) name ends up without one, whether the pattern
	// references ${ext} explicitly or relies on the auto-append below.
	compatIsRaw := archiveFmt == ""
	if compatIsRaw {
		namingLog.Printf("archive format for %s/%s is empty; compat artifact will be a raw binary", tool.Name, platform)
	}

	return Resolution{
		VersionedName: versionedName,
		CompatName:    compatName,
		CompatIsRaw:   compatIsRaw,
		ArchiveExt:    archiveFmt,
		TargetTriples: triples,
	}, nil
}

func resolveArch(tool model.ToolDescriptor, arch string) (string, error) {
	if tool.ArchAliases == nil {
		return arch, nil
	}
	alias, ok := tool.ArchAliases[arch]
	if !ok {
		return arch, nil
	}
	// A self-referential or empty alias is a configuration error (§4.1
	// "conflicting aliases").
	if alias == "" || alias == arch {
		return "", errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, fmt.Sprintf("conflicting arch alias for %q", arch))
	}
	return alias, nil
}

func resolveTriples(tool model.ToolDescriptor, platform model.Platform, defaultTarget string) []string {
	if tool.TargetTriples != nil {
		if triple, ok := tool.TargetTriples[platform.String()]; ok && triple != "" {
			return []string{triple}
		}
	}
	return []string{defaultTarget}
}

func resolveArchiveFormat(tool model.ToolDescriptor, osName string) string {
	if tool.ArchiveFormat != nil {
		if fmtOverride, ok := tool.ArchiveFormat[osName]; ok {
			return fmtOverride
		}
	}
	if osName == "windows" {
		return constants.DefaultArchiveFormatWindows
	}
	return constants.DefaultArchiveFormatNonWindows
}

func substitutionVars(name, version, osName, arch, target, triple, archiveFmt string) map[string]string {
	ext := ""
	if archiveFmt != "" {
		ext = "." + archiveFmt
	}
	return map[string]string{
		"name":          name,
		"version":       strings.TrimPrefix(version, "v"),
		"os":            osName,
		"arch":          arch,
		"target":        target,
		"target_triple": triple,
		"ext":           ext,
	}
}

// substitute expands every ${var} token in pattern, erroring on an
// undefined variable per §4.1.
func substitute(pattern string, vars map[string]string) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(pattern) {
		if pattern[i] == '$' && i+1 < len(pattern) && pattern[i+1] == '{' {
			end := strings.IndexByte(pattern[i+2:], '}')
			if end < 0 {
				return "", fmt.Errorf("unterminated ${} in pattern %q", pattern)
			}
			key := pattern[i+2 : i+2+end]
			val, ok := vars[key]
			if !ok {
				return "", fmt.Errorf("undefined variable %q in pattern %q", key, pattern)
			}
			out.WriteString(val)
			i += 2 + end + 1
			continue
		}
		out.WriteByte(pattern[i])
		i++
	}
	return out.String(), nil
}

// resolveCompat implements the strict precedence in §4.1/§9: explicit
// install_script_compat wins over install-script auto-detection, which
// wins over the heuristic of stripping the version token. A present but
// malformed explicit/auto-detected source is a configuration error, never
// a silent fall-through to the heuristic. It returns the resolved name
// together with the source pattern text, so the caller can decide whether
// the platform's archive extension still needs auto-appending.
func resolveCompat(tool model.ToolDescriptor, vars map[string]string) (name string, pattern string, err error) {
	if tool.CompatPattern != "" {
		name, err = substitute(tool.CompatPattern, vars)
		if err != nil {
			return "", "", errs.Wrap(errs.KindConfiguration, errs.CodeConfigInvalid, err, "resolving explicit compat pattern")
		}
		return name, tool.CompatPattern, nil
	}

	if tool.InstallScriptPath != "" {
		pattern, detectErr := detectCompatPatternFromInstallScript(tool.InstallScriptPath)
		if detectErr != nil {
			return "", "", errs.Wrap(errs.KindConfiguration, errs.CodeConfigInvalid, detectErr, "auto-detecting compat pattern from install script")
		}
		name, err = substitute(pattern, vars)
		if err != nil {
			return "", "", errs.Wrap(errs.KindConfiguration, errs.CodeConfigInvalid, err, "resolving auto-detected compat pattern")
		}
		return name, pattern, nil
	}

	// Heuristic: strip the version token from the versioned pattern.
	heuristic := strings.ReplaceAll(tool.NamingPattern, "${version}", "")
	heuristic = strings.ReplaceAll(heuristic, "--", "-")
	name, err = substitute(heuristic, vars)
	if err != nil {
		return "", "", errs.Wrap(errs.KindConfiguration, errs.CodeConfigInvalid, err, "resolving heuristic compat pattern")
	}
	return name, heuristic, nil
}

// appendExtIfAbsent auto-appends the platform's archive extension to name
// when pattern didn't already place it via an explicit ${ext} token (§4.1;
// see DESIGN.md for the worked-example-driven resolution of this rule).
func appendExtIfAbsent(name, pattern, archiveFmt string) string {
	if archiveFmt == "" || strings.Contains(pattern, "${ext}") {
		return name
	}
	return name + "." + archiveFmt
}

// detectCompatPatternFromInstallScript extracts the compat naming pattern an
// existing install.sh expects, by locating its asset-name construction line
// and translating its shell variable references into dsr's "${var}" grammar.
func detectCompatPatternFromInstallScript(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := string(content)
	for _, marker := range []string{"BINARY=", "ASSET=", "FILENAME="} {
		idx := strings.Index(text, marker)
		if idx < 0 {
			continue
		}
		line := text[idx:]
		if nl := strings.IndexByte(line, '\n'); nl >= 0 {
			line = line[:nl]
		}
		pattern := translateShellPattern(line)
		if pattern != "" {
			return pattern, nil
		}
	}
	return "", fmt.Errorf("could not locate an asset-name assignment in %s", path)
}

func translateShellPattern(line string) string {
	replacer := strings.NewReplacer(
		"${NAME}", "${name}", "$NAME", "${name}",
		"${OS}", "${os}", "$OS", "${os}",
		"${ARCH}", "${arch}", "$ARCH", "${arch}",
	)
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return ""
	}
	value := strings.Trim(line[eq+1:], `"' `)
	return replacer.Replace(value)
}
