package level

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Loader reads and validates level JSON documents from a directory tree.
type Loader struct {
	Dir string
}

// NewLoader builds a Loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir}
}

// ResolvePath finds the file backing a levelId, trying registry.json first,
// then level_<id>.json, then the zero-padded level_NN.json, per spec.md §6.
func (l *Loader) ResolvePath(levelID int) (string, error) {
	registryPath := filepath.Join(l.Dir, "registry.json")
	if data, err := os.ReadFile(registryPath); err == nil {
		var registry map[string]string
		if jerr := json.Unmarshal(data, &registry); jerr == nil {
			if rel, ok := registry[fmt.Sprintf("%d", levelID)]; ok {
				return filepath.Join(l.Dir, rel), nil
			}
		}
	}

	candidate := filepath.Join(l.Dir, fmt.Sprintf("level_%d.json", levelID))
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}

	candidate = filepath.Join(l.Dir, fmt.Sprintf("level_%02d.json", levelID))
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}

	return "", &LoadError{Code: ErrFileNotFound, Message: "no registry entry or level_<id>.json/level_NN.json found", Path: l.Dir}
}

// LoadLevel resolves and loads levelID from the loader's directory.
func (l *Loader) LoadLevel(levelID int) (*LevelData, error) {
	path, err := l.ResolvePath(levelID)
	if err != nil {
		return nil, err
	}
	return l.Load(path)
}

// Load reads, parses, and validates the level document at path.
func (l *Loader) Load(path string) (*LevelData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(&LoadError{Code: ErrFileRead, Message: err.Error(), Path: path}, "reading level file")
	}

	var level LevelData
	if err := json.Unmarshal(data, &level); err != nil {
		return nil, errors.Wrapf(&LoadError{Code: ErrJSONParse, Message: err.Error(), Path: path}, "parsing level file")
	}

	for i := range level.Patterns {
		level.Patterns[i].Pattern = parseMovementPattern(level.Patterns[i].PatternName)
	}

	if err := validate(&level, path); err != nil {
		return nil, err
	}
	return &level, nil
}

func validate(l *LevelData, path string) error {
	if l.SchemaVersion != 1 {
		return &LoadError{Code: ErrUnknownSchemaVersion, Message: fmt.Sprintf("schemaVersion %d unsupported", l.SchemaVersion), Path: path}
	}
	if len(l.Segments) == 0 {
		return &LoadError{Code: ErrEmptySegments, Message: "level has no segments", Path: path}
	}

	seenTypeIDs := make(map[uint16]bool, len(l.Archetypes))
	for _, a := range l.Archetypes {
		if seenTypeIDs[a.TypeID] {
			return &LoadError{Code: ErrDuplicateArchetype, Message: fmt.Sprintf("typeId %d declared twice", a.TypeID), Path: path}
		}
		seenTypeIDs[a.TypeID] = true
	}
	for _, required := range RequiredArchetypeTypeIDs {
		if !seenTypeIDs[required] {
			return &LoadError{Code: ErrMissingArchetype, Message: fmt.Sprintf("required typeId %d missing", required), Path: path, Pointer: "/archetypes"}
		}
	}

	patternIDs := make(map[string]bool, len(l.Patterns))
	for _, p := range l.Patterns {
		patternIDs[p.ID] = true
	}

	spawnIDs := make(map[string]bool)
	checkpointIDs := make(map[string]bool)
	for si, seg := range l.Segments {
		for ei, ev := range seg.Events {
			switch ev.Kind {
			case EventSpawnWave, EventSpawnObstacle, EventSpawnBoss:
				spawnIDs[ev.SpawnGroupID()] = true
			case EventCheckpoint:
				checkpointIDs[ev.CheckpointID] = true
			}
			_ = ei
		}
		if err := validateScroll(seg.Scroll, path, fmt.Sprintf("/segments/%d/scroll", si)); err != nil {
			return err
		}
	}

	for si, seg := range l.Segments {
		for ei, ev := range seg.Events {
			ptr := fmt.Sprintf("/segments/%d/events/%d", si, ei)
			if err := validateTriggerRefs(ev.Trigger, l.Bosses, patternIDs, spawnIDs, checkpointIDs, path, ptr+"/trigger"); err != nil {
				return err
			}
			if err := validateEventBody(ev, l, spawnIDs, path, ptr); err != nil {
				return err
			}
		}
		if err := validateTriggerRefs(seg.Exit, l.Bosses, patternIDs, spawnIDs, checkpointIDs, path, fmt.Sprintf("/segments/%d/exit", si)); err != nil {
			return err
		}
	}

	for bossID, boss := range l.Bosses {
		ptr := "/bosses/" + bossID
		if _, ok := l.Templates.Hitboxes[boss.HitboxTemplate]; !ok {
			return &LoadError{Code: ErrDanglingReference, Message: "unknown hitboxTemplate " + boss.HitboxTemplate, Path: path, Pointer: ptr}
		}
		if _, ok := l.Templates.Colliders[boss.ColliderTemplate]; !ok {
			return &LoadError{Code: ErrDanglingReference, Message: "unknown colliderTemplate " + boss.ColliderTemplate, Path: path, Pointer: ptr}
		}
		if boss.PatternID != "" && !patternIDs[boss.PatternID] {
			return &LoadError{Code: ErrDanglingReference, Message: "unknown patternId " + boss.PatternID, Path: path, Pointer: ptr}
		}
		if boss.Scale != 0 && !validScale(boss.Scale) {
			return &LoadError{Code: ErrInvalidScale, Message: "boss scale must be finite and positive", Path: path, Pointer: ptr}
		}
	}

	return nil
}

func validScale(scale float64) bool {
	return !math.IsNaN(scale) && !math.IsInf(scale, 0) && scale > 0
}

func validateScroll(s ScrollSettings, path, ptr string) error {
	if s.Kind != ScrollCurve {
		return nil
	}
	if len(s.Keyframes) == 0 {
		return &LoadError{Code: ErrBadScrollCurve, Message: "curve scroll needs at least one keyframe", Path: path, Pointer: ptr}
	}
	if s.Keyframes[0].T != 0 {
		return &LoadError{Code: ErrBadScrollCurve, Message: "first keyframe must be at t=0", Path: path, Pointer: ptr}
	}
	for i := 1; i < len(s.Keyframes); i++ {
		if s.Keyframes[i].T < s.Keyframes[i-1].T {
			return &LoadError{Code: ErrBadScrollCurve, Message: "keyframe times must be non-decreasing", Path: path, Pointer: ptr}
		}
	}
	return nil
}

func validateTriggerRefs(t Trigger, bosses map[string]BossDef, patternIDs, spawnIDs, checkpointIDs map[string]bool, path, ptr string) error {
	switch t.Kind {
	case TriggerSpawnDead:
		if !spawnIDs[t.SpawnID] {
			return &LoadError{Code: ErrDanglingReference, Message: "unknown spawnId " + t.SpawnID, Path: path, Pointer: ptr}
		}
	case TriggerBossDead, TriggerHpBelow:
		if _, ok := bosses[t.BossID]; !ok {
			return &LoadError{Code: ErrDanglingReference, Message: "unknown bossId " + t.BossID, Path: path, Pointer: ptr}
		}
	case TriggerCheckpointReached:
		if !checkpointIDs[t.CheckpointID] {
			return &LoadError{Code: ErrDanglingReference, Message: "unknown checkpointId " + t.CheckpointID, Path: path, Pointer: ptr}
		}
	case TriggerAllOf, TriggerAnyOf:
		for i, child := range t.Children {
			if err := validateTriggerRefs(child, bosses, patternIDs, spawnIDs, checkpointIDs, path, fmt.Sprintf("%s/triggers/%d", ptr, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateEventBody(ev Event, l *LevelData, spawnIDs map[string]bool, path, ptr string) error {
	switch ev.Kind {
	case EventSpawnWave:
		if ev.Wave == nil {
			return &LoadError{Code: ErrDanglingReference, Message: "spawn_wave missing wave body", Path: path, Pointer: ptr}
		}
		if _, ok := l.Templates.Enemies[ev.Wave.Template]; !ok {
			return &LoadError{Code: ErrDanglingReference, Message: "unknown enemy template " + ev.Wave.Template, Path: path, Pointer: ptr + "/wave"}
		}
		if ev.Wave.PatternID != "" {
			found := false
			for _, p := range l.Patterns {
				if p.ID == ev.Wave.PatternID {
					found = true
					break
				}
			}
			if !found {
				return &LoadError{Code: ErrDanglingReference, Message: "unknown patternId " + ev.Wave.PatternID, Path: path, Pointer: ptr + "/wave"}
			}
		}
		if ev.Wave.Scale != nil && !validScale(*ev.Wave.Scale) {
			return &LoadError{Code: ErrInvalidScale, Message: "wave scale must be finite and positive", Path: path, Pointer: ptr + "/wave"}
		}
	case EventSpawnObstacle:
		if ev.Obstacle == nil {
			return &LoadError{Code: ErrDanglingReference, Message: "spawn_obstacle missing obstacle body", Path: path, Pointer: ptr}
		}
		if _, ok := l.Templates.Obstacles[ev.Obstacle.Template]; !ok {
			return &LoadError{Code: ErrDanglingReference, Message: "unknown obstacle template " + ev.Obstacle.Template, Path: path, Pointer: ptr + "/obstacle"}
		}
	case EventSpawnBoss:
		if ev.Boss == nil {
			return &LoadError{Code: ErrDanglingReference, Message: "spawn_boss missing boss body", Path: path, Pointer: ptr}
		}
		if _, ok := l.Bosses[ev.Boss.BossID]; !ok {
			return &LoadError{Code: ErrDanglingReference, Message: "unknown bossId " + ev.Boss.BossID, Path: path, Pointer: ptr + "/boss"}
		}
	case EventSetScroll:
		if ev.Scroll == nil {
			return &LoadError{Code: ErrDanglingReference, Message: "set_scroll missing scroll body", Path: path, Pointer: ptr}
		}
		if err := validateScroll(*ev.Scroll, path, ptr+"/scroll"); err != nil {
			return err
		}
	case EventGateOpen, EventGateClose:
		if !spawnIDs[ev.GateID] {
			return &LoadError{Code: ErrDanglingReference, Message: "unknown gateId " + ev.GateID, Path: path, Pointer: ptr}
		}
	}
	return nil
}
