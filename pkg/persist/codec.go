package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"

	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/geom"
	"github.com/matzehuels/flowboard/pkg/registry"
)

var errNotObject = errors.New("not a JSON object")

// =============================================================================
// Instances
// =============================================================================

// InstanceRecord is the stored form of an instance. Flags default to true
// when absent.
type InstanceRecord struct {
	ID          string           `json:"-"`
	Def         string           `json:"def,omitempty"`
	X           float64          `json:"x"`
	Y           float64          `json:"y"`
	W           float64          `json:"w"`
	H           float64          `json:"h"`
	Z           float64          `json:"z"`
	Connectable *bool            `json:"connectable,omitempty"`
	Editable    *bool            `json:"editable,omitempty"`
	Enabled     *bool            `json:"enabled,omitempty"`
	Arranged    bool             `json:"arranged"`
	Payload     registry.Payload `json:"payload"`
}

func recordOf(inst board.Instance) InstanceRecord {
	return InstanceRecord{
		ID:          inst.ID,
		Def:         inst.Def,
		X:           inst.X,
		Y:           inst.Y,
		W:           inst.W,
		H:           inst.H,
		Z:           float64(inst.Z),
		Connectable: &inst.Connectable,
		Editable:    &inst.Editable,
		Enabled:     &inst.Enabled,
		Arranged:    inst.Arranged,
		Payload:     inst.Payload,
	}
}

// instance builds the board instance of r bound to def.
func (r InstanceRecord) instance(def registry.Definition) board.Instance {
	size := def.Size()
	w, h := r.W, r.H
	if w <= 0 {
		w = size.W
	}
	if h <= 0 {
		h = size.H
	}
	z := int(math.Round(r.Z))
	if z == 0 {
		z = 1
	}
	return board.Instance{
		ID:          r.ID,
		Def:         def.ID,
		X:           r.X,
		Y:           r.Y,
		W:           w,
		H:           h,
		Z:           z,
		Connectable: flag(r.Connectable),
		Editable:    flag(r.Editable),
		Enabled:     flag(r.Enabled),
		Arranged:    r.Arranged,
		Payload:     r.Payload,
	}
}

func flag(b *bool) bool { return b == nil || *b }

// InstanceMap is a JSON object of instance records that keeps its key
// order through a round trip.
type InstanceMap []InstanceRecord

// MarshalJSON writes the records as an object keyed by id.
func (m InstanceMap) MarshalJSON() ([]byte, error) {
	return marshalOrdered(len(m), func(i int) (string, any) { return m[i].ID, m[i] })
}

// UnmarshalJSON reads an object keyed by id. Entries that do not decode are
// skipped; a repeated key replaces the earlier entry in place.
func (m *InstanceMap) UnmarshalJSON(data []byte) error {
	var out InstanceMap
	index := map[string]int{}
	err := unmarshalOrdered(data, func(key string, raw json.RawMessage) {
		var r InstanceRecord
		if key == "" || json.Unmarshal(raw, &r) != nil {
			return
		}
		r.ID = key
		if i, dup := index[key]; dup {
			out[i] = r
			return
		}
		index[key] = len(out)
		out = append(out, r)
	})
	*m = out
	return err
}

// =============================================================================
// Templates
// =============================================================================

// TemplateRecord is the stored form of a user template. The presenter is
// never stored; Base names the built-in it comes from. Records without a
// base fall back to the template identifier candidates.
type TemplateRecord struct {
	ID             string           `json:"-"`
	Name           string           `json:"name"`
	Base           string           `json:"base,omitempty"`
	Connectable    *bool            `json:"connectable,omitempty"`
	DefaultSize    *geom.Size       `json:"defaultSize,omitempty"`
	DefaultPayload registry.Payload `json:"defaultPayload"`
}

func templateRecordOf(def registry.Definition) TemplateRecord {
	size := def.Size()
	return TemplateRecord{
		ID:             def.ID,
		Name:           def.Name,
		Base:           def.Base,
		Connectable:    &def.Connectable,
		DefaultSize:    &size,
		DefaultPayload: def.DefaultPayload,
	}
}

// Definition converts r back into a template definition.
func (r TemplateRecord) Definition() registry.Definition {
	def := registry.Definition{
		ID:             r.ID,
		Name:           r.Name,
		Base:           r.Base,
		Connectable:    flag(r.Connectable),
		Editable:       true,
		DefaultPayload: r.DefaultPayload,
		Template:       true,
	}
	if r.DefaultSize != nil {
		def.DefaultSize = *r.DefaultSize
	}
	return def
}

// TemplateMap is a JSON object of template records in creation order.
type TemplateMap []TemplateRecord

// MarshalJSON writes the records as an object keyed by id.
func (m TemplateMap) MarshalJSON() ([]byte, error) {
	return marshalOrdered(len(m), func(i int) (string, any) { return m[i].ID, m[i] })
}

// UnmarshalJSON reads an object keyed by id, skipping entries that do not
// decode.
func (m *TemplateMap) UnmarshalJSON(data []byte) error {
	var out TemplateMap
	err := unmarshalOrdered(data, func(key string, raw json.RawMessage) {
		var r TemplateRecord
		if key == "" || json.Unmarshal(raw, &r) != nil {
			return
		}
		r.ID = key
		out = append(out, r)
	})
	*m = out
	return err
}

// =============================================================================
// Links and view
// =============================================================================

// decodeLinks reads a link array, skipping elements that are not objects
// with both endpoints.
func decodeLinks(data []byte) []board.Link {
	var raws []json.RawMessage
	if json.Unmarshal(data, &raws) != nil {
		return nil
	}
	links := make([]board.Link, 0, len(raws))
	for _, raw := range raws {
		var l board.Link
		if json.Unmarshal(raw, &l) != nil || l.From == "" || l.To == "" {
			continue
		}
		links = append(links, l)
	}
	return links
}

// decodeView reads {"x":..,"y":..}. Both coordinates must be numbers.
func decodeView(data []byte) (geom.Point, bool) {
	var v struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if json.Unmarshal(data, &v) != nil || v.X == nil || v.Y == nil {
		return geom.Point{}, false
	}
	return geom.Point{X: *v.X, Y: *v.Y}, true
}

// =============================================================================
// Ordered objects
// =============================================================================

func marshalOrdered(n int, entry func(i int) (string, any)) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := range n {
		key, val := entry(i)
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// unmarshalOrdered calls fn for each member of a JSON object in document
// order. null decodes as an empty object.
func unmarshalOrdered(data []byte, fn func(key string, raw json.RawMessage)) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errNotObject
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		fn(key, raw)
	}
	_, err = dec.Token()
	return err
}
