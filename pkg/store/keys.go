package store

// Base key names, versioned so a format change can start from empty.
const (
	instancesKey = "flowboard.instances.v1"
	linksKey     = "flowboard.links.v1"
	viewKey      = "flowboard.view.v1"
	templatesKey = "flowboard.templates.v1"
	streamsKey   = "flowboard.streams.v1"
)

// DefaultBoard is the board name used when none is given. Its keys carry no
// prefix.
const DefaultBoard = "default"

// Keys names the store entries of one board.
//
// Example usage:
//
//	k := NewKeys("retro")
//	k.Instances() // "retro:flowboard.instances.v1"
type Keys struct {
	prefix string
}

// NewKeys returns the keys of the named board.
func NewKeys(board string) Keys {
	if board == "" || board == DefaultBoard {
		return Keys{}
	}
	return Keys{prefix: board + ":"}
}

// Instances is the key of the instance map.
func (k Keys) Instances() string { return k.prefix + instancesKey }

// Links is the key of the link list.
func (k Keys) Links() string { return k.prefix + linksKey }

// View is the key of the view offset.
func (k Keys) View() string { return k.prefix + viewKey }

// Templates is the key of the user template map.
func (k Keys) Templates() string { return k.prefix + templatesKey }

// Streams is the key of the node stream buffers.
func (k Keys) Streams() string { return k.prefix + streamsKey }

// All returns every key of the board.
func (k Keys) All() []string {
	return []string{k.Instances(), k.Links(), k.View(), k.Templates(), k.Streams()}
}
