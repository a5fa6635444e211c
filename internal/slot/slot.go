// Package slot defines the boundary to the component-identity registry.
//
// Components are addressed by integer slots allocated and recycled by an
// external registry. The input core never owns component state; it reads
// per-slot attributes (focusability, visibility, tab order, identity,
// containment, scroll bounds) through the Registry interface and treats
// every answer as authoritative for the duration of one query.
package slot

// ID identifies a component slot.
type ID int

// None is the reserved "no slot" sentinel. It is never allocated.
const None ID = -1

// IsNone returns true for the sentinel.
func (id ID) IsNone() bool {
	return id == None
}

// Visibility is the three-valued per-slot visibility attribute.
// A slot with no explicit setting counts as visible.
type Visibility uint8

const (
	// VisibilityUnset means no explicit value; the slot is treated as visible.
	VisibilityUnset Visibility = iota
	// VisibilityHidden means the slot was explicitly hidden.
	VisibilityHidden
	// VisibilityVisible means the slot was explicitly shown.
	VisibilityVisible
)

// Bounds describes the scrollable extent of a slot as computed by the
// layout engine. MaxX and MaxY are the largest valid offsets.
type Bounds struct {
	Scrollable bool
	MaxX       int
	MaxY       int
}

// Registry is the read-only view of the external component registry and
// layout engine. Implementations must tolerate queries for slots that no
// longer exist and answer with zero values.
type Registry interface {
	// Slots returns all currently allocated slots in allocation order.
	Slots() []ID

	// Focusable reports whether the slot accepts focus.
	Focusable(id ID) bool

	// Visibility returns the slot's visibility attribute.
	Visibility(id ID) Visibility

	// TabOrder returns the slot's explicit tab order, 0 when unset.
	TabOrder(id ID) int

	// Identity returns the string identity currently associated with the
	// slot. ok is false when the slot is not allocated.
	Identity(id ID) (identity string, ok bool)

	// Parent returns the slot's container, if it has one.
	Parent(id ID) (parent ID, ok bool)

	// ScrollBounds returns the slot's scroll bounds from the most recent
	// layout pass. ok is false when the slot is not allocated.
	ScrollBounds(id ID) (b Bounds, ok bool)

	// SlotAt returns the topmost slot covering the cell at (x, y).
	SlotAt(x, y int) (id ID, ok bool)
}

// Visible reports whether a slot should be treated as visible:
// anything except an explicit hide counts.
func Visible(r Registry, id ID) bool {
	return r.Visibility(id) != VisibilityHidden
}
