// Package contracts checks that the backend symbols imported by page code
// are exported by the backend modules that should provide them.
package contracts

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"sitegate/internal/logging"
)

var log = logging.For("contracts")

var (
	namedImport   = regexp.MustCompile(`import\s*\{([^}]+)\}\s*from\s*['"]backend/([^'"]+\.jsw)['"]`)
	dynamicImport = regexp.MustCompile(`\b(?:const|let|var)\s*\{([^}]+)\}\s*=\s*await\s+import\(\s*['"]backend/([^'"]+\.jsw)['"]\s*\)`)

	exportFunc  = regexp.MustCompile(`export\s+(?:async\s+)?function\s*\*?\s*([A-Za-z_$][A-Za-z0-9_$]*)`)
	exportConst = regexp.MustCompile(`export\s+(?:const|let|var)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	exportList  = regexp.MustCompile(`export\s*\{([^}]+)\}`)
)

// Imports maps a backend module (relative to backend/) to the symbols page
// code needs from it.
type Imports map[string]map[string]bool

func (im Imports) add(module, symbol string) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return
	}
	if im[module] == nil {
		im[module] = map[string]bool{}
	}
	im[module][symbol] = true
}

// Symbols returns the module's symbols in sorted order.
func (im Imports) Symbols(module string) []string {
	out := make([]string, 0, len(im[module]))
	for s := range im[module] {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Modules returns the referenced modules in sorted order.
func (im Imports) Modules() []string {
	out := make([]string, 0, len(im))
	for m := range im {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// ParseImports adds the named and destructured dynamic backend imports found
// in text. Aliases resolve to the imported name.
func ParseImports(text string, into Imports) {
	for _, m := range namedImport.FindAllStringSubmatch(text, -1) {
		for _, part := range strings.Split(m[1], ",") {
			name, _, _ := strings.Cut(strings.TrimSpace(part), " as ")
			into.add(m[2], name)
		}
	}
	for _, m := range dynamicImport.FindAllStringSubmatch(text, -1) {
		for _, part := range strings.Split(m[1], ",") {
			name, _, _ := strings.Cut(part, ":")
			into.add(m[2], name)
		}
	}
}

// ParseExports returns the names a module exports. For `export { a as b }`
// the exported name is b.
func ParseExports(text string) map[string]bool {
	out := map[string]bool{}
	for _, m := range exportFunc.FindAllStringSubmatch(text, -1) {
		out[m[1]] = true
	}
	for _, m := range exportConst.FindAllStringSubmatch(text, -1) {
		out[m[1]] = true
	}
	for _, m := range exportList.FindAllStringSubmatch(text, -1) {
		for _, part := range strings.Split(m[1], ",") {
			local, alias, ok := strings.Cut(part, " as ")
			name := strings.TrimSpace(local)
			if ok {
				name = strings.TrimSpace(alias)
			}
			if name != "" {
				out[name] = true
			}
		}
	}
	return out
}

// Declared reports whether text declares symbol as a function or binding,
// exported or not.
func Declared(text, symbol string) bool {
	q := regexp.QuoteMeta(symbol)
	re := regexp.MustCompile(`(?:function\s*\*?\s*` + q + `|(?:const|let|var)\s+` + q + `)\b`)
	return re.MatchString(text)
}

type MissingExport struct {
	Module string `json:"module"`
	Symbol string `json:"symbol"`
	Path   string `json:"path"`
	// Declared is true when the module defines the symbol without exporting
	// it.
	Declared bool `json:"declared"`
}

type Result struct {
	Root              string          `json:"root"`
	FilesScanned      int             `json:"files_scanned"`
	ModulesReferenced []string        `json:"modules_referenced"`
	MissingModules    []string        `json:"missing_modules"`
	MissingExports    []MissingExport `json:"missing_exports"`
}

func (r Result) OK() bool {
	return len(r.MissingModules) == 0 && len(r.MissingExports) == 0
}

// PageFiles lists src/pages_backup/*.js and src/pages/**/*.js under root.
func PageFiles(root string) ([]string, error) {
	backups, err := filepath.Glob(filepath.Join(root, "src", "pages_backup", "*.js"))
	if err != nil {
		return nil, err
	}
	files := append([]string(nil), backups...)

	pages := filepath.Join(root, "src", "pages")
	err = filepath.WalkDir(pages, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == pages && os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".js") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", pages, err)
	}
	sort.Strings(files)
	return files, nil
}

// ResolveModule finds module under src/backend or backend. ok is false
// when neither exists.
func ResolveModule(root, module string) (string, bool) {
	for _, dir := range []string{filepath.Join(root, "src", "backend"), filepath.Join(root, "backend")} {
		p := filepath.Join(dir, filepath.FromSlash(module))
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Scan reads page code under root and checks every backend import against
// the resolved module's exports.
func Scan(root string) (Result, error) {
	files, err := PageFiles(root)
	if err != nil {
		return Result{}, err
	}
	imports := Imports{}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return Result{}, fmt.Errorf("read %s: %w", f, err)
		}
		ParseImports(string(data), imports)
	}

	res := Result{
		Root:              root,
		FilesScanned:      len(files),
		ModulesReferenced: imports.Modules(),
		MissingModules:    []string{},
		MissingExports:    []MissingExport{},
	}
	for _, mod := range res.ModulesReferenced {
		path, ok := ResolveModule(root, mod)
		if !ok {
			res.MissingModules = append(res.MissingModules, mod)
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return Result{}, fmt.Errorf("read %s: %w", path, err)
		}
		text := string(data)
		exports := ParseExports(text)
		for _, sym := range imports.Symbols(mod) {
			if exports[sym] {
				continue
			}
			res.MissingExports = append(res.MissingExports, MissingExport{
				Module:   mod,
				Symbol:   sym,
				Path:     path,
				Declared: Declared(text, sym),
			})
		}
	}
	log.WithField("files", res.FilesScanned).WithField("modules", len(res.ModulesReferenced)).Debug("contracts scanned")
	return res, nil
}

// WriteText prints the result in the line format of the scanner report.
func WriteText(w io.Writer, r Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "MODULES_REFERENCED %d\n", len(r.ModulesReferenced))
	fmt.Fprintf(&b, "MISSING_MODULES %d\n", len(r.MissingModules))
	for _, m := range r.MissingModules {
		fmt.Fprintf(&b, "MISSING_MODULE %s\n", m)
	}
	fmt.Fprintf(&b, "MISSING_EXPORTS %d\n", len(r.MissingExports))
	for _, e := range r.MissingExports {
		note := ""
		if e.Declared {
			note = " (declared, not exported)"
		}
		fmt.Fprintf(&b, "MISSING_EXPORT %s::%s in %s%s\n", e.Module, e.Symbol, e.Path, note)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func WriteJSON(w io.Writer, r Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
