// Package boardio converts a board to and from its exchange JSON:
//
//	{ "board": {"width": W, "height": H},
//	  "nodes": [{"id","x","y","w","h","z","type","connectable","enabled","payload"}],
//	  "edges": [{"from","to","color","intent","params"}] }
//
// Export is link driven: only instances that take part in at least one
// valid link are written, and "type" carries the display name of the
// instance's definition. Import maps "type" back to a definition by exact
// display name and drops nodes it cannot place, together with any edge
// that touches them.
package boardio
