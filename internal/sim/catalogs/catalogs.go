package catalogs

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
)

//go:embed defaults/*.json
var defaultFS embed.FS

type Catalogs struct {
	Locomotion LocomotionCatalog
	Terrain    TerrainCatalog
	Maneuvers  ManeuverCatalog
}

type LocomotionCatalog struct {
	ByClass map[string]LocomotionDef
	Digest  string
}

// LocomotionDef is the capability row for one locomotion class.
type LocomotionDef struct {
	Class string   `json:"class"`
	Steps []string `json:"steps"`
	// Water is one of NONE, SHALLOW, WADE, SURFACE, REQUIRED, IGNORE.
	Water       string         `json:"water"`
	MaxClimb    int            `json:"max_climb"`
	Flies       bool           `json:"flies,omitempty"`
	CanJump     bool           `json:"can_jump,omitempty"`
	TerrainCost map[string]int `json:"terrain_cost,omitempty"` // per-class override; -1 impassable
}

type TerrainCatalog struct {
	Palette []string
	ByID    map[string]TerrainDef
	Digest  string
}

type TerrainDef struct {
	ID     string `json:"id"`
	Cost   int    `json:"cost"`
	Water  bool   `json:"water,omitempty"`
	Hazard bool   `json:"hazard,omitempty"`
}

type ManeuverCatalog struct {
	ByID   map[int]ManeuverDef
	Digest string
}

type ManeuverDef struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Thrust      int    `json:"thrust"`
	MinVelocity int    `json:"min_velocity"`
	Facing      int    `json:"facing_change"`
}

var waterModes = map[string]bool{
	"NONE": true, "SHALLOW": true, "WADE": true, "SURFACE": true, "REQUIRED": true, "IGNORE": true,
}

// Load reads catalogs from a config directory.
func Load(configDir string) (*Catalogs, error) {
	return LoadFS(os.DirFS(configDir))
}

// Default returns the catalogs compiled into the binary.
func Default() *Catalogs {
	sub, err := fs.Sub(defaultFS, "defaults")
	if err != nil {
		panic(err)
	}
	c, err := LoadFS(sub)
	if err != nil {
		panic(fmt.Sprintf("embedded catalogs: %v", err))
	}
	return c
}

func LoadFS(fsys fs.FS) (*Catalogs, error) {
	var c Catalogs
	if err := loadTerrain(fsys, "terrain.json", &c.Terrain); err != nil {
		return nil, err
	}
	if err := loadLocomotion(fsys, "locomotion.json", &c.Locomotion, &c.Terrain); err != nil {
		return nil, err
	}
	if err := loadManeuvers(fsys, "maneuvers.json", &c.Maneuvers); err != nil {
		return nil, err
	}
	return &c, nil
}

// Digest combines every catalog digest; client and authority must agree on it.
func (c *Catalogs) Digest() string {
	return sha256Hex([]byte(c.Terrain.Digest + c.Locomotion.Digest + c.Maneuvers.Digest))
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadTerrain(fsys fs.FS, path string, out *TerrainCatalog) error {
	raw, err := fs.ReadFile(fsys, path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []TerrainDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("terrain.json: %w", err)
	}
	out.ByID = map[string]TerrainDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("terrain.json: empty id")
		}
		out.ByID[d.ID] = d
	}
	if _, ok := out.ByID["CLEAR"]; !ok {
		return fmt.Errorf("terrain.json: missing CLEAR")
	}
	ids := make([]string, 0, len(out.ByID))
	for id := range out.ByID {
		if id != "CLEAR" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	out.Palette = append([]string{"CLEAR"}, ids...)
	return nil
}

func loadLocomotion(fsys fs.FS, path string, out *LocomotionCatalog, terrain *TerrainCatalog) error {
	raw, err := fs.ReadFile(fsys, path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []LocomotionDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("locomotion.json: %w", err)
	}
	out.ByClass = map[string]LocomotionDef{}
	for _, d := range defs {
		d.Class = strings.ToUpper(strings.TrimSpace(d.Class))
		if d.Class == "" {
			return fmt.Errorf("locomotion.json: empty class")
		}
		if _, dup := out.ByClass[d.Class]; dup {
			return fmt.Errorf("locomotion.json: duplicate class %s", d.Class)
		}
		if !waterModes[d.Water] {
			return fmt.Errorf("locomotion.json: %s: bad water mode %q", d.Class, d.Water)
		}
		for id := range d.TerrainCost {
			if _, ok := terrain.ByID[id]; !ok {
				return fmt.Errorf("locomotion.json: %s: unknown terrain %s", d.Class, id)
			}
		}
		out.ByClass[d.Class] = d
	}
	return nil
}

func loadManeuvers(fsys fs.FS, path string, out *ManeuverCatalog) error {
	out.ByID = map[int]ManeuverDef{}
	raw, err := fs.ReadFile(fsys, path)
	if err != nil {
		// Maneuvers are optional.
		if errors.Is(err, fs.ErrNotExist) {
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []ManeuverDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("maneuvers.json: %w", err)
	}
	for _, d := range defs {
		if d.Name == "" {
			return fmt.Errorf("maneuvers.json: maneuver %d: missing name", d.ID)
		}
		out.ByID[d.ID] = d
	}
	return nil
}
