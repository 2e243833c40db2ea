package file

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/palaver/pkg/adapters/memory"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// World is the parsed content of one or more world files.
type World struct {
	Owners  []domain.Owner
	Objects map[string]string
}

type worldDoc struct {
	Objects map[string]string `mapstructure:"objects"`
	Owners  []ownerDoc        `mapstructure:"owners"`
}

type ownerDoc struct {
	ID          string    `mapstructure:"id"`
	Type        string    `mapstructure:"type"`
	Name        string    `mapstructure:"name"`
	Nodes       []nodeDoc `mapstructure:"nodes"`
	Connections []connDoc `mapstructure:"connections"`
}

type nodeDoc struct {
	ID         string            `mapstructure:"id"`
	Type       string            `mapstructure:"type"`
	Category   string            `mapstructure:"category"`
	Properties map[string]any    `mapstructure:"properties"`
	Next       string            `mapstructure:"next"`
	Ports      map[string]string `mapstructure:"ports"`
}

type connDoc struct {
	From string `mapstructure:"from"`
	Port string `mapstructure:"port"`
	To   string `mapstructure:"to"`
}

// LoadWorld reads a world file. Files ending in .json are parsed as JSON,
// anything else as YAML.
func LoadWorld(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read world file: %w", err)
	}
	w, err := ParseWorld(data, strings.ToLower(filepath.Ext(path)) == ".json")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// LoadWorldDir merges every .yaml, .yml and .json file of a directory, in
// name order. Owner ids must be unique across files.
func LoadWorldDir(dir string) (*World, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read world directory: %w", err)
	}

	merged := &World{Objects: make(map[string]string)}
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		path := filepath.Join(dir, entry.Name())
		w, err := LoadWorld(path)
		if err != nil {
			return nil, err
		}
		for _, o := range w.Owners {
			key := domain.FoldID(o.ID)
			if prev, dup := seen[key]; dup {
				return nil, fmt.Errorf("owner %q defined in both %s and %s", o.ID, prev, entry.Name())
			}
			seen[key] = entry.Name()
			merged.Owners = append(merged.Owners, o)
		}
		for id, name := range w.Objects {
			merged.Objects[id] = name
		}
	}
	return merged, nil
}

// Load reads a world file or a directory of world files.
func Load(path string) (*World, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open world: %w", err)
	}
	if info.IsDir() {
		return LoadWorldDir(path)
	}
	return LoadWorld(path)
}

// ParseWorld decodes world data.
func ParseWorld(data []byte, isJSON bool) (*World, error) {
	var raw map[string]any
	if isJSON {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse world json: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse world yaml: %w", err)
	}

	var doc worldDoc
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &doc,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid world: %w", err)
	}
	return doc.toWorld()
}

func (d worldDoc) toWorld() (*World, error) {
	w := &World{Objects: make(map[string]string, len(d.Objects))}
	for id, name := range d.Objects {
		w.Objects[id] = name
	}

	seen := make(map[string]bool)
	for i, od := range d.Owners {
		if domain.IsBlank(od.ID) {
			return nil, fmt.Errorf("owner #%d has no id", i+1)
		}
		if seen[domain.FoldID(od.ID)] {
			return nil, fmt.Errorf("duplicate owner %q", od.ID)
		}
		seen[domain.FoldID(od.ID)] = true

		owner, err := od.toOwner()
		if err != nil {
			return nil, fmt.Errorf("owner %q: %w", od.ID, err)
		}
		w.Owners = append(w.Owners, owner)
	}
	return w, nil
}

func (od ownerDoc) toOwner() (domain.Owner, error) {
	owner := domain.Owner{ID: od.ID, Type: od.Type, DisplayName: od.Name}
	if owner.DisplayName == "" {
		owner.DisplayName = od.ID
	}

	for i, nd := range od.Nodes {
		if domain.IsBlank(nd.ID) {
			return domain.Owner{}, fmt.Errorf("node #%d has no id", i+1)
		}
		if domain.IsBlank(nd.Type) {
			return domain.Owner{}, fmt.Errorf("node %q has no type", nd.ID)
		}
		nodeType, _ := domain.ParseNodeType(nd.Type)
		owner.Script.Nodes = append(owner.Script.Nodes, domain.ScriptNode{
			ID:         nd.ID,
			Type:       nodeType,
			Category:   nd.Category,
			Properties: domain.NewProperties(nd.Properties),
		})

		if nd.Next != "" {
			owner.Script.Connections = append(owner.Script.Connections, domain.Connection{
				From: nd.ID, Port: domain.PortExec, To: nd.Next,
			})
		}
		ports := make([]string, 0, len(nd.Ports))
		for port := range nd.Ports {
			ports = append(ports, port)
		}
		sort.Strings(ports)
		for _, port := range ports {
			owner.Script.Connections = append(owner.Script.Connections, domain.Connection{
				From: nd.ID, Port: port, To: nd.Ports[port],
			})
		}
	}

	for _, cd := range od.Connections {
		if domain.IsBlank(cd.From) || domain.IsBlank(cd.To) || domain.IsBlank(cd.Port) {
			return domain.Owner{}, fmt.Errorf("incomplete connection %s.%s -> %s", cd.From, cd.Port, cd.To)
		}
		owner.Script.Connections = append(owner.Script.Connections, domain.Connection(cd))
	}
	return owner, nil
}

// ScriptStore returns an in-memory script store holding the world's owners.
func (w *World) ScriptStore() *memory.ScriptStore {
	return memory.NewScriptStore(w.Owners...)
}

// Catalog returns the world's object names.
func (w *World) Catalog() *memory.Catalog {
	return memory.NewCatalog(w.Objects)
}
