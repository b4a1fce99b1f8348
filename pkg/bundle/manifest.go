package bundle

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-views/pkg/viewengine"
	"github.com/goliatone/go-views/pkg/viewengine/django"
	"github.com/goliatone/go-views/pkg/viewengine/gohtml"
)

// Manifest is the YAML description of a bundle: which engine compiles its
// templates, where they live, and the model-name to virtual-path table used
// by render-by-type.
type Manifest struct {
	Name      string            `yaml:"name"`
	Engine    string            `yaml:"engine"`
	Dir       string            `yaml:"dir"`
	Extension string            `yaml:"extension,omitempty"`
	Globals   map[string]any    `yaml:"globals,omitempty"`
	Types     map[string]string `yaml:"types,omitempty"`
}

// ParseManifest decodes a manifest document.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("bundle: parse manifest: %w", err)
	}
	if m.Name == "" {
		return Manifest{}, fmt.Errorf("bundle: manifest missing name")
	}
	if m.Dir == "" {
		return Manifest{}, fmt.Errorf("bundle: manifest %q missing dir", m.Name)
	}
	if m.Engine == "" {
		m.Engine = "django"
	}
	return m, nil
}

// LoadManifest reads and decodes a manifest file. Relative template dirs are
// resolved against the manifest's directory.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("bundle: read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return Manifest{}, err
	}
	if !filepath.IsAbs(m.Dir) {
		m.Dir = filepath.Join(filepath.Dir(path), m.Dir)
	}
	return m, nil
}

// Build constructs the bundle the manifest describes, wiring the named engine
// and populating the registration table.
func (m Manifest) Build() (*Bundle, error) {
	engine, err := m.buildEngine(nil)
	if err != nil {
		return nil, err
	}
	return m.assemble(engine)
}

// BuildFS is Build with templates loaded from an fs.FS instead of m.Dir,
// typically an embed.FS shipped with the application.
func (m Manifest) BuildFS(files fs.FS) (*Bundle, error) {
	if files == nil {
		return nil, fmt.Errorf("bundle: manifest %q: nil fs", m.Name)
	}
	engine, err := m.buildEngine(files)
	if err != nil {
		return nil, err
	}
	return m.assemble(engine)
}

func (m Manifest) buildEngine(files fs.FS) (viewengine.Engine, error) {
	switch m.Engine {
	case "django", "":
		opts := []django.Option{django.WithExtension(m.Extension), django.WithGlobals(m.Globals)}
		if files != nil {
			opts = append(opts, django.WithFS(files))
		} else {
			opts = append(opts, django.WithBaseDir(m.Dir))
		}
		engine, err := django.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("bundle: manifest %q: %w", m.Name, err)
		}
		return engine, nil
	case "gohtml":
		fsys := files
		if fsys == nil {
			fsys = os.DirFS(m.Dir)
		}
		engine, err := gohtml.New(gohtml.WithFS(fsys), gohtml.WithExtension(m.Extension))
		if err != nil {
			return nil, fmt.Errorf("bundle: manifest %q: %w", m.Name, err)
		}
		return engine, nil
	default:
		return nil, fmt.Errorf("bundle: manifest %q names unknown engine %q", m.Name, m.Engine)
	}
}

func (m Manifest) assemble(engine viewengine.Engine) (*Bundle, error) {
	b, err := New(m.Name, engine)
	if err != nil {
		return nil, err
	}

	// deterministic registration order keeps duplicate-path errors stable
	names := make([]string, 0, len(m.Types))
	for name := range m.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := b.RegisterName(name, m.Types[name]); err != nil {
			return nil, err
		}
	}
	return b, nil
}
