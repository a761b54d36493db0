package descriptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Jakobo/eyeglass/pkg/semver"
)

const (
	// PackageFile is the npm package descriptor
	PackageFile = "package.json"
	// ModuleFile is the optional eyeglass descriptor
	ModuleFile = "eyeglass.yaml"
	// ModuleKeyword marks a package as a stylesheet module
	ModuleKeyword = "eyeglass-module"
)

// Descriptor is the metadata of one package directory
type Descriptor struct {
	Name         string            `json:"name" yaml:"name"`
	Version      string            `json:"version" yaml:"version"`
	Main         string            `json:"main,omitempty" yaml:"main,omitempty"`
	Keywords     []string          `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Eyeglass     *ModuleInfo       `json:"eyeglass,omitempty" yaml:"eyeglass,omitempty"`

	// Dir is the absolute directory the descriptor was read from
	Dir string `json:"-" yaml:"-"`
}

// ModuleInfo is the eyeglass specific block of a descriptor
type ModuleInfo struct {
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	SassDir   string `json:"sassDir,omitempty" yaml:"sassDir,omitempty"`
	Main      string `json:"main,omitempty" yaml:"main,omitempty"`
	Needs     string `json:"needs,omitempty" yaml:"needs,omitempty"`
	AssetsDir string `json:"assetsDir,omitempty" yaml:"assetsDir,omitempty"`
}

// moduleFile is the flat shape of eyeglass.yaml
type moduleFile struct {
	Name         string            `yaml:"name"`
	ModuleName   string            `yaml:"moduleName"`
	Version      string            `yaml:"version"`
	Dependencies map[string]string `yaml:"dependencies"`
	SassDir      string            `yaml:"sassDir"`
	Main         string            `yaml:"main"`
	Needs        string            `yaml:"needs"`
	AssetsDir    string            `yaml:"assetsDir"`
}

// ValidationError describes one invalid descriptor field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Read loads the descriptor of dir
func Read(dir string) (*Descriptor, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	desc, err := readPackageFile(filepath.Join(abs, PackageFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	mod, modErr := readModuleFile(filepath.Join(abs, ModuleFile))
	if modErr != nil && !errors.Is(modErr, fs.ErrNotExist) {
		return nil, modErr
	}

	switch {
	case desc == nil && mod == nil:
		return nil, fmt.Errorf("%w in %s", ErrNoDescriptor, abs)
	case desc == nil:
		desc = &Descriptor{}
	}

	if mod != nil {
		desc.merge(mod)
	}
	desc.Dir = abs
	return desc, nil
}

func readPackageFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var desc Descriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &desc, nil
}

func readModuleFile(path string) (*moduleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var mod moduleFile
	if err := yaml.Unmarshal(data, &mod); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &mod, nil
}

func (d *Descriptor) merge(mod *moduleFile) {
	if d.Name == "" {
		d.Name = mod.Name
	}
	if d.Version == "" {
		d.Version = mod.Version
	}
	if len(mod.Dependencies) > 0 && d.Dependencies == nil {
		d.Dependencies = make(map[string]string, len(mod.Dependencies))
	}
	for name, rng := range mod.Dependencies {
		d.Dependencies[name] = rng
	}

	info := ModuleInfo{
		Name:      mod.ModuleName,
		SassDir:   mod.SassDir,
		Main:      mod.Main,
		Needs:     mod.Needs,
		AssetsDir: mod.AssetsDir,
	}
	if d.Eyeglass != nil {
		if info.Name == "" {
			info.Name = d.Eyeglass.Name
		}
		if info.SassDir == "" {
			info.SassDir = d.Eyeglass.SassDir
		}
		if info.Main == "" {
			info.Main = d.Eyeglass.Main
		}
		if info.Needs == "" {
			info.Needs = d.Eyeglass.Needs
		}
		if info.AssetsDir == "" {
			info.AssetsDir = d.Eyeglass.AssetsDir
		}
	}
	if info.Name == "" && mod.Name != "" && mod.Name != d.Name {
		info.Name = mod.Name
	}
	d.Eyeglass = &info
}

// Write saves d as package.json into dir
func Write(d *Descriptor, dir string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal descriptor: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, PackageFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write descriptor: %w", err)
	}
	return nil
}

// IsModule reports whether the package declares itself a stylesheet module
func (d *Descriptor) IsModule() bool {
	if d.Eyeglass != nil {
		return true
	}
	for _, kw := range d.Keywords {
		if kw == ModuleKeyword {
			return true
		}
	}
	return false
}

// ModuleName is the logical name other stylesheets import the module by
func (d *Descriptor) ModuleName() string {
	if d.Eyeglass != nil && d.Eyeglass.Name != "" {
		return d.Eyeglass.Name
	}
	return d.Name
}

// StylesheetDir is the absolute directory module imports resolve against
func (d *Descriptor) StylesheetDir() string {
	if d.Eyeglass == nil || d.Eyeglass.SassDir == "" {
		return d.Dir
	}
	return d.abs(d.Eyeglass.SassDir)
}

// Entry is the path of the stylesheet imported by the bare module name,
// without inferring extensions. Empty when none is declared.
func (d *Descriptor) Entry() string {
	if d.Eyeglass == nil || d.Eyeglass.Main == "" {
		return ""
	}
	return filepath.Join(d.StylesheetDir(), filepath.FromSlash(d.Eyeglass.Main))
}

// AssetsDir is the absolute directory of assets the module ships, if declared
func (d *Descriptor) AssetsDir() string {
	if d.Eyeglass == nil || d.Eyeglass.AssetsDir == "" {
		return ""
	}
	return d.abs(d.Eyeglass.AssetsDir)
}

// Needs is the range of eyeglass versions the module supports
func (d *Descriptor) Needs() string {
	if d.Eyeglass == nil {
		return ""
	}
	return d.Eyeglass.Needs
}

// DependencyNames returns declared dependency names in a stable order
func (d *Descriptor) DependencyNames() []string {
	names := make([]string, 0, len(d.Dependencies))
	for name := range d.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *Descriptor) abs(rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(d.Dir, filepath.FromSlash(rel))
}

// Validate performs basic validation on a descriptor
func (d *Descriptor) Validate() []ValidationError {
	var errs []ValidationError

	if d.ModuleName() == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "Package name is required",
		})
	}

	if d.Version != "" {
		if _, err := semver.ParseVersion(d.Version); err != nil {
			errs = append(errs, ValidationError{
				Field:   "version",
				Message: fmt.Sprintf("Invalid semver format: %s", d.Version),
			})
		}
	}

	if needs := d.Needs(); needs != "" {
		if _, err := semver.ParseConstraint(needs); err != nil {
			errs = append(errs, ValidationError{
				Field:   "eyeglass.needs",
				Message: fmt.Sprintf("Invalid version range: %s", needs),
			})
		}
	}

	for _, name := range d.DependencyNames() {
		if _, err := semver.ParseConstraint(d.Dependencies[name]); err != nil {
			errs = append(errs, ValidationError{
				Field:   "dependencies." + name,
				Message: fmt.Sprintf("Invalid version range: %s", d.Dependencies[name]),
			})
		}
	}

	return errs
}
