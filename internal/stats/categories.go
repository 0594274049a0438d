package stats

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// OtherCategory is reported for files no category claims.
const OtherCategory = "Other"

// CategoryFile is the name of the user override looked up in the config
// directory.
const CategoryFile = "categories.yml"

//go:embed categories.yml
var defaultCategories []byte

// CategoryInfo lists what belongs to one file type category.
type CategoryInfo struct {
	Extensions []string `yaml:"extensions"`
	Filenames  []string `yaml:"filenames"`
}

// CategoryMap maps category names (e.g. "Code") to their members.
type CategoryMap map[string]CategoryInfo

// Categories resolves file names to categories.
type Categories struct {
	Map          CategoryMap
	extensionMap map[string]string
	filenameMap  map[string]string
}

// DefaultCategories returns the built-in table.
func DefaultCategories() *Categories {
	c, err := ParseCategories(defaultCategories)
	if err != nil {
		panic(fmt.Sprintf("built-in category table: %v", err))
	}
	return c
}

// LoadCategories reads categories.yml from the first of dirs that has one and
// falls back to the built-in table when none does.
func LoadCategories(dirs ...string) (*Categories, error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, CategoryFile)
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("error reading category file %s: %w", path, err)
		}
		c, err := ParseCategories(data)
		if err != nil {
			return nil, fmt.Errorf("error parsing category file %s: %w", path, err)
		}
		return c, nil
	}
	return DefaultCategories(), nil
}

// ParseCategories builds lookup tables from a YAML category map. When two
// categories claim the same extension, the alphabetically first wins.
func ParseCategories(data []byte) (*Categories, error) {
	var m CategoryMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	c := &Categories{
		Map:          m,
		extensionMap: make(map[string]string),
		filenameMap:  make(map[string]string),
	}
	for name, info := range m {
		for _, ext := range info.Extensions {
			ext = strings.ToLower(strings.TrimPrefix(ext, "."))
			if cur, ok := c.extensionMap[ext]; !ok || name < cur {
				c.extensionMap[ext] = name
			}
		}
		for _, fname := range info.Filenames {
			if cur, ok := c.filenameMap[fname]; !ok || name < cur {
				c.filenameMap[fname] = name
			}
		}
	}
	return c, nil
}

// Category returns the category of a file name, or OtherCategory.
func (c *Categories) Category(name string) string {
	if c == nil {
		return OtherCategory
	}
	if cat, ok := c.filenameMap[name]; ok {
		return cat
	}
	if ext := Extension(name); ext != "" {
		if cat, ok := c.extensionMap[strings.ToLower(ext)]; ok {
			return cat
		}
	}
	return OtherCategory
}

// Extension returns the text after the last dot of name, without the dot.
// Dotfiles such as ".bashrc" have no extension.
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i+1:]
}
