package boardio

import (
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/errors"
	"github.com/matzehuels/flowboard/pkg/registry"
)

// Imported is the board state recovered from a document.
type Imported struct {
	Instances []board.Instance
	Links     []board.Link
	// Dropped lists node ids whose type matched no definition.
	Dropped []string
}

// Empty reports whether no instance survived.
func (im Imported) Empty() bool { return len(im.Instances) == 0 }

// Parse decodes a document and resolves it against reg. Malformed nodes and
// edges are skipped; only input that is not a JSON object is an error.
//
// Numbers are read leniently: numeric strings are accepted, and a missing,
// zero or unreadable value takes its default (0 for x and y, the
// definition size for w and h, 1 for z). Imported instances are marked
// arranged.
func Parse(reg *registry.Registry, data []byte) (Imported, error) {
	var raw struct {
		Nodes json.RawMessage `json:"nodes"`
		Edges json.RawMessage `json:"edges"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Imported{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "board document")
	}

	var im Imported
	index := map[string]int{}
	for _, n := range objects(raw.Nodes) {
		id := strings.TrimSpace(stringOf(n["id"]))
		if id == "" {
			continue
		}
		def, ok := reg.ByName(stringOf(n["type"]))
		if !ok {
			im.Dropped = append(im.Dropped, id)
			continue
		}
		inst := nodeInstance(id, n, def)
		if i, dup := index[id]; dup {
			im.Instances[i] = inst
			continue
		}
		index[id] = len(im.Instances)
		im.Instances = append(im.Instances, inst)
	}

	enabled := make(map[string]bool, len(im.Instances))
	for _, inst := range im.Instances {
		if inst.Enabled {
			enabled[inst.ID] = true
		}
	}
	for _, e := range objects(raw.Edges) {
		from, to := stringOf(e["from"]), stringOf(e["to"])
		if !enabled[from] || !enabled[to] {
			continue
		}
		color, _ := e["color"].(string)
		if color == "" {
			color = board.DefaultLinkColor
		}
		im.Links = append(im.Links, board.Link{
			From:   from,
			To:     to,
			Color:  color,
			Intent: e["intent"],
			Params: e["params"],
		})
	}
	return im, nil
}

// Read parses a document from r.
func Read(reg *registry.Registry, r io.Reader) (Imported, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Imported{}, err
	}
	return Parse(reg, data)
}

func nodeInstance(id string, n map[string]any, def registry.Definition) board.Instance {
	size := def.Size()
	payload, _ := n["payload"].(map[string]any)
	return board.Instance{
		ID:          id,
		Def:         def.ID,
		X:           number(n["x"], 0),
		Y:           number(n["y"], 0),
		W:           number(n["w"], size.W),
		H:           number(n["h"], size.H),
		Z:           int(number(n["z"], 1)),
		Connectable: n["connectable"] != false && def.Connectable,
		Editable:    def.Editable,
		Enabled:     n["enabled"] != false,
		Arranged:    true,
		Payload:     registry.Payload(payload),
	}
}

// objects decodes a JSON array and keeps its object elements. Anything
// else yields nil.
func objects(raw json.RawMessage) []map[string]any {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		var obj map[string]any
		if json.Unmarshal(item, &obj) == nil && obj != nil {
			out = append(out, obj)
		}
	}
	return out
}

// number converts v to a float, returning def for missing, zero or
// non-numeric values.
func number(v any, def float64) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		s := strings.TrimSpace(x)
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return def
		}
		f = parsed
	case bool:
		if x {
			f = 1
		}
	}
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// stringOf renders scalar JSON values as text. Objects, arrays, null and
// false-like values give "".
func stringOf(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == 0 {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "true"
		}
	}
	return ""
}
