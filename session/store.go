// Package session persists a VM's globals table to SQLite so a REPL
// workspace can be saved and restored across process runs (SPEC_FULL.md
// §11). It is not part of spec.md's core language — nothing here is
// reachable from ordinary script execution.
package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/johnryzon123/Ry2/value"
)

// ErrSnapshotNotFound indicates the requested snapshot name doesn't exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store wraps a SQLite database holding named globals snapshots.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at dbPath and
// ensures its schema exists.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating session directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		name TEXT PRIMARY KEY,
		generation TEXT NOT NULL,
		data TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshots table: %w", err)
	}

	return &Store{db: db}, nil
}

// DefaultPath returns the database path `ry save`/`ry load` use when the
// caller doesn't give one explicitly: $HOME/.ry/sessions.db, following
// the env-var-then-home-dir fallback the teacher's persistence layer uses.
func DefaultPath() (string, error) {
	if p := os.Getenv("RY_SESSION_DB"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}
	return filepath.Join(home, ".ry", "sessions.db"), nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// portable is the JSON shape a persistable Value is reduced to. Only
// nil/bool/number/string/list/map survive; Save skips everything else.
type portable struct {
	Kind  string      `json:"kind"`
	Value interface{} `json:"value,omitempty"`
}

// Save persists globals under name, skipping any value that isn't
// nil/bool/number/string/list/map (functions, instances, and natives
// aren't serializable, per SPEC_FULL.md §11). It returns the names it
// skipped so the caller can warn about them.
func (s *Store) Save(name string, globals map[string]value.Value) (skipped []string, err error) {
	snapshot := make(map[string]portable, len(globals))
	for k, v := range globals {
		p, ok := toPortable(v)
		if !ok {
			skipped = append(skipped, k)
			continue
		}
		snapshot[k] = p
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return skipped, fmt.Errorf("encoding snapshot %q: %w", name, err)
	}

	generation := uuid.NewString()
	_, err = s.db.Exec("INSERT OR REPLACE INTO snapshots (name, generation, data) VALUES (?, ?, ?)", name, generation, string(data))
	if err != nil {
		return skipped, fmt.Errorf("saving snapshot %q: %w", name, err)
	}
	return skipped, nil
}

// Load restores a previously saved snapshot into a fresh globals map. It
// returns the names it could not reconstruct (always empty for Save's own
// output, but kept symmetric for a hand-edited snapshot).
func (s *Store) Load(name string) (globals map[string]value.Value, skipped []string, err error) {
	var data string
	err = s.db.QueryRow("SELECT data FROM snapshots WHERE name = ?", name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrSnapshotNotFound
		}
		return nil, nil, fmt.Errorf("querying snapshot %q: %w", name, err)
	}

	var snapshot map[string]portable
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, nil, fmt.Errorf("decoding snapshot %q: %w", name, err)
	}

	globals = make(map[string]value.Value, len(snapshot))
	for k, p := range snapshot {
		v, ok := fromPortable(p)
		if !ok {
			skipped = append(skipped, k)
			continue
		}
		globals[k] = v
	}
	return globals, skipped, nil
}

// Delete removes a named snapshot.
func (s *Store) Delete(name string) error {
	_, err := s.db.Exec("DELETE FROM snapshots WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting snapshot %q: %w", name, err)
	}
	return nil
}

// Snapshot is one row of List's output: a saved name and the generation
// id it was last saved under (regenerated on every Save, so a name's
// generation changing between two List calls means it was re-saved).
type Snapshot struct {
	Name       string
	Generation string
}

// List returns every saved snapshot's name and current generation id.
func (s *Store) List() ([]Snapshot, error) {
	rows, err := s.db.Query("SELECT name, generation FROM snapshots ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.Name, &snap.Generation); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func toPortable(v value.Value) (portable, bool) {
	switch {
	case v.IsNil():
		return portable{Kind: "nil"}, true
	case v.IsBool():
		return portable{Kind: "bool", Value: v.AsBool()}, true
	case v.IsNumber():
		return portable{Kind: "number", Value: v.AsNumber()}, true
	case v.IsString():
		return portable{Kind: "string", Value: v.AsString()}, true
	case v.IsList():
		items := v.AsList().Items
		out := make([]portable, 0, len(items))
		for _, item := range items {
			p, ok := toPortable(item)
			if !ok {
				return portable{}, false
			}
			out = append(out, p)
		}
		return portable{Kind: "list", Value: out}, true
	case v.IsMap():
		m := v.AsMap()
		entries := make([]portable, 0, m.Len())
		for _, k := range m.Keys() {
			kv, ok := m.Get(k)
			if !ok {
				continue
			}
			kp, ok := toPortable(k)
			if !ok {
				return portable{}, false
			}
			vp, ok := toPortable(kv)
			if !ok {
				return portable{}, false
			}
			entries = append(entries, portable{Kind: "entry", Value: []portable{kp, vp}})
		}
		return portable{Kind: "map", Value: entries}, true
	default:
		return portable{}, false
	}
}

func fromPortable(p portable) (value.Value, bool) {
	switch p.Kind {
	case "nil":
		return value.Nil(), true
	case "bool":
		b, ok := p.Value.(bool)
		return value.Bool(b), ok
	case "number":
		n, ok := p.Value.(float64)
		return value.Number(n), ok
	case "string":
		s, ok := p.Value.(string)
		return value.String(s), ok
	case "list":
		raw, ok := p.Value.([]interface{})
		if !ok {
			return value.Nil(), false
		}
		items := make([]value.Value, 0, len(raw))
		for _, r := range raw {
			sub, ok := decodePortable(r)
			if !ok {
				return value.Nil(), false
			}
			v, ok := fromPortable(sub)
			if !ok {
				return value.Nil(), false
			}
			items = append(items, v)
		}
		return value.ListValue(value.NewList(items...)), true
	case "map":
		raw, ok := p.Value.([]interface{})
		if !ok {
			return value.Nil(), false
		}
		m := value.NewMap()
		for _, r := range raw {
			entry, ok := decodePortable(r)
			if !ok || entry.Kind != "entry" {
				return value.Nil(), false
			}
			pair, ok := entry.Value.([]interface{})
			if !ok || len(pair) != 2 {
				return value.Nil(), false
			}
			kp, ok := decodePortable(pair[0])
			if !ok {
				return value.Nil(), false
			}
			vp, ok := decodePortable(pair[1])
			if !ok {
				return value.Nil(), false
			}
			kv, ok := fromPortable(kp)
			if !ok {
				return value.Nil(), false
			}
			vv, ok := fromPortable(vp)
			if !ok {
				return value.Nil(), false
			}
			m.Set(kv, vv)
		}
		return value.MapValue(m), true
	default:
		return value.Nil(), false
	}
}

// decodePortable re-decodes a generic interface{} (as produced by
// encoding/json for nested structures) into a portable struct, since
// json.Unmarshal into interface{} doesn't preserve the portable type.
func decodePortable(raw interface{}) (portable, bool) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return portable{}, false
	}
	kind, _ := m["kind"].(string)
	return portable{Kind: kind, Value: m["value"]}, true
}
