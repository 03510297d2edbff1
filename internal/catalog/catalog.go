// Package catalog keeps a named set of VMA variables on disk so a whole model's
// inputs can be summarized in one batch.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/vma-cli/internal/utils"
	"github.com/KaramelBytes/vma-cli/internal/vma"
	"github.com/google/uuid"
)

const catalogFileName = "catalog.json"

// Catalog is a set of variables persisted as catalog.json.
type Catalog struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Variables   map[string]*Variable `json:"variables"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`

	// Not serialized: on-disk location of the catalog.json
	rootDir string `json:"-"`
}

// NewCatalog constructs an in-memory catalog. Call Save() to persist.
func NewCatalog(name, description, rootDir string) *Catalog {
	now := time.Now()
	return &Catalog{
		Name:        name,
		Description: description,
		Variables:   make(map[string]*Variable),
		CreatedAt:   now,
		UpdatedAt:   now,
		rootDir:     rootDir,
	}
}

// LoadCatalog loads a catalog.json from the provided directory.
func LoadCatalog(dir string) (*Catalog, error) {
	path := filepath.Join(dir, catalogFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("catalog not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if c.Variables == nil {
		c.Variables = make(map[string]*Variable)
	}
	c.rootDir = dir
	return &c, nil
}

// Exists reports whether dir already holds a catalog.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, catalogFileName))
	return err == nil
}

// RootDir returns the on-disk catalog directory path.
func (c *Catalog) RootDir() string { return c.rootDir }

// Save writes catalog.json using atomic write.
func (c *Catalog) Save() error {
	if c.rootDir == "" {
		return errors.New("catalog root directory not set")
	}
	if err := utils.EnsureDir(c.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	c.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(c)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(c.rootDir, catalogFileName), data)
}

// AddVariable loads the source once to validate it and records it under a new
// ID. base supplies the load options (sheet selection aside); the variable's
// overrides are set by the caller on the returned value.
func (c *Catalog) AddVariable(path, name, description, sheet string, base vma.Options) (*Variable, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	}
	if _, ok := c.Find(name); ok {
		return nil, fmt.Errorf("variable %q already in catalog %s", name, c.Name)
	}
	v := &Variable{
		ID:          uuid.NewString(),
		Name:        name,
		Path:        abs,
		Description: strings.TrimSpace(description),
		Sheet:       sheet,
		AddedAt:     time.Now(),
	}
	table, err := vma.New(v.Options(base))
	if err != nil {
		return nil, fmt.Errorf("load variable: %w", err)
	}
	v.Rows = table.Snapshot().Len()
	if units, ok := table.Units(); ok {
		v.Units = units
	}
	if c.Variables == nil {
		c.Variables = make(map[string]*Variable)
	}
	c.Variables[v.ID] = v
	c.UpdatedAt = time.Now()
	return v, nil
}

// Remove deletes a variable by name or ID.
func (c *Catalog) Remove(nameOrID string) bool {
	v, ok := c.Find(nameOrID)
	if !ok {
		return false
	}
	delete(c.Variables, v.ID)
	c.UpdatedAt = time.Now()
	return true
}

// Find looks a variable up by ID or case-insensitive name.
func (c *Catalog) Find(nameOrID string) (*Variable, bool) {
	if v, ok := c.Variables[nameOrID]; ok {
		return v, true
	}
	for _, v := range c.Variables {
		if strings.EqualFold(v.Name, nameOrID) {
			return v, true
		}
	}
	return nil, false
}

// Sorted returns the variables ordered by name for stable listings.
func (c *Catalog) Sorted() []*Variable {
	out := make([]*Variable, 0, len(c.Variables))
	for _, v := range c.Variables {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}
