// Package snapshot builds portable scenario snapshots with deterministic
// content hashes. The hash is a SHA-256 over canonical JSON (sorted keys,
// normalized numbers) so two snapshots with the same effective inputs hash
// identically regardless of key order, float noise, or insertion history.
package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Schema identifiers carried in the envelopes.
const (
	ConfigSchema   = "rbv.scenario_config.v1"
	SnapshotSchema = "rbv.scenario_snapshot.v1"
)

// DefaultApp names the producing application in exported snapshots.
const DefaultApp = "Rent vs Buy Simulator"

// normalizeFloat collapses signed zero and sub-epsilon noise, rounds to 12
// significant digits, and folds near-integers into ints so equal inputs
// canonicalize identically across runs.
func normalizeFloat(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	if math.Abs(v) < 1e-15 {
		v = 0.0
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', 12, 64), 64)
	if err == nil {
		v = r
	}
	if math.Abs(v-math.Round(v)) <= 1e-12 && math.Abs(v) < math.MaxInt64 {
		return int64(math.Round(v))
	}
	return v
}

// Canonicalize returns a JSON-safe, deterministically ordered copy of a
// decoded value tree. Best-effort: unknown types are stringified rather
// than rejected.
func Canonicalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool, string:
		return x
	case int:
		return int64(x)
	case int64:
		return x
	case float64:
		return normalizeFloat(x)
	case float32:
		return normalizeFloat(float64(x))
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return normalizeFloat(f)
		}
		return x.String()
	case time.Time:
		return x.Format(time.RFC3339)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = Canonicalize(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = Canonicalize(val)
		}
		return out
	default:
		return fmt.Sprint(x)
	}
}

// canonicalJSON renders a canonicalized tree compactly with sorted keys and
// no HTML escaping.
func canonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeCanonical(buf, x[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, val := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, val); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		enc, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(enc)
		return nil
	}
}

// Config is the portable scenario-state envelope.
type Config struct {
	Schema string
	State  map[string]any
}

// NewConfig wraps a state map. allowedKeys, when non-nil, filters the state
// down to the listed keys so transient UI values never affect the hash.
func NewConfig(state map[string]any, allowedKeys []string) Config {
	src := state
	if allowedKeys != nil {
		allowed := make(map[string]bool, len(allowedKeys))
		for _, k := range allowedKeys {
			allowed[k] = true
		}
		src = make(map[string]any, len(state))
		for k, v := range state {
			if allowed[k] {
				src[k] = v
			}
		}
	}
	cp := make(map[string]any, len(src))
	for k, v := range src {
		cp[k] = v
	}
	return Config{Schema: ConfigSchema, State: cp}
}

// CanonicalState returns the normalized state tree.
func (c Config) CanonicalState() map[string]any {
	out, _ := Canonicalize(c.State).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	return out
}

// CanonicalJSON returns the compact, key-sorted JSON of the canonical state.
func (c Config) CanonicalJSON() ([]byte, error) {
	return canonicalJSON(Canonicalize(c.State))
}

// Hash returns the deterministic SHA-256 hex digest of the canonical state.
func (c Config) Hash() (string, error) {
	b, err := c.CanonicalJSON()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// ToMap renders the config envelope with its embedded hash.
func (c Config) ToMap() (map[string]any, error) {
	h, err := c.Hash()
	if err != nil {
		return nil, err
	}
	schema := c.Schema
	if schema == "" {
		schema = ConfigSchema
	}
	return map[string]any{
		"schema": schema,
		"state":  c.CanonicalState(),
		"hash":   h,
	}, nil
}

// Snapshot is the exported envelope around a Config plus provenance
// metadata.
type Snapshot struct {
	Schema     string
	Config     Config
	Slot       string
	Label      string
	App        string
	Version    string
	ExportedAt time.Time
	Meta       map[string]any
}

// Options tune New.
type Options struct {
	Slot    string
	Label   string
	Version string
	// Meta entries are merged over the generated run metadata.
	Meta map[string]any
	// Now overrides the export timestamp; zero means time.Now.
	Now time.Time
}

// New builds a snapshot around a state map, stamping a fresh run ID into
// the metadata when the caller did not supply one.
func New(state map[string]any, opts Options) Snapshot {
	slot := opts.Slot
	if slot == "" {
		slot = "active"
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	meta := map[string]any{"run_id": uuid.NewString()}
	for k, v := range opts.Meta {
		meta[k] = v
	}
	return Snapshot{
		Schema:     SnapshotSchema,
		Config:     NewConfig(state, nil),
		Slot:       slot,
		Label:      opts.Label,
		App:        DefaultApp,
		Version:    opts.Version,
		ExportedAt: now,
		Meta:       meta,
	}
}

// Hash returns the scenario hash of the embedded config.
func (s Snapshot) Hash() (string, error) { return s.Config.Hash() }

// ToMap renders the full v1 snapshot payload. The top-level `state` mirror
// keeps older importers working.
func (s Snapshot) ToMap() (map[string]any, error) {
	cfgMap, err := s.Config.ToMap()
	if err != nil {
		return nil, err
	}
	schema := s.Schema
	if schema == "" {
		schema = SnapshotSchema
	}
	app := s.App
	if app == "" {
		app = DefaultApp
	}
	var label any
	if s.Label != "" {
		label = s.Label
	}
	var version any
	if s.Version != "" {
		version = s.Version
	}
	return map[string]any{
		"schema":        schema,
		"app":           app,
		"version":       version,
		"exported_at":   s.ExportedAt.Format(time.RFC3339),
		"slot":          s.Slot,
		"label":         label,
		"scenario_hash": cfgMap["hash"],
		"config":        cfgMap,
		"state":         cfgMap["state"],
		"meta":          Canonicalize(s.Meta),
	}, nil
}

// MarshalJSON renders the payload in canonical form.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	m, err := s.ToMap()
	if err != nil {
		return nil, err
	}
	return canonicalJSON(Canonicalize(m))
}

// FromPayload reads a v1 or legacy snapshot payload. A bare state map, a
// `{state: ...}` wrapper, and the full envelope are all accepted.
func FromPayload(payload map[string]any) Snapshot {
	obj := payload
	if obj == nil {
		obj = map[string]any{}
	}

	var cfg Config
	if c, ok := obj["config"].(map[string]any); ok {
		state, _ := c["state"].(map[string]any)
		cfg = NewConfig(state, nil)
		if sch, ok := c["schema"].(string); ok && sch != "" {
			cfg.Schema = sch
		}
	} else if st, ok := obj["state"].(map[string]any); ok {
		cfg = NewConfig(st, nil)
	} else {
		cfg = NewConfig(obj, nil)
	}

	str := func(key, def string) string {
		if v, ok := obj[key].(string); ok && v != "" {
			return v
		}
		return def
	}
	exported := time.Now()
	if ts, ok := obj["exported_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			exported = t
		}
	}
	meta, _ := obj["meta"].(map[string]any)
	if meta == nil {
		meta = map[string]any{}
	}
	return Snapshot{
		Schema:     str("schema", SnapshotSchema),
		Config:     cfg,
		Slot:       str("slot", "active"),
		Label:      str("label", ""),
		App:        str("app", DefaultApp),
		Version:    str("version", ""),
		ExportedAt: exported,
		Meta:       meta,
	}
}

// StateOf flattens any JSON-marshalable value (typically a configuration
// struct) into the state-map shape snapshots carry.
func StateOf(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// HashState is the one-call form: canonical hash of a bare state map.
func HashState(state map[string]any) (string, error) {
	return NewConfig(state, nil).Hash()
}
