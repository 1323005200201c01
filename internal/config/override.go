package config

// Override is a task's stance on one inheritable config axis (shell, path
// or env): leave it unset and take whatever the parents resolved, switch
// inheritance on or off explicitly, or supply a custom value.
//
// The zero value is Unset.
type Override[T any] struct {
	kind overrideKind
	flag bool
	val  T
}

type overrideKind uint8

const (
	overrideUnset overrideKind = iota
	overrideFlag
	overrideCustom
)

// Unset returns an override that defers entirely to the parents.
func Unset[T any]() Override[T] {
	return Override[T]{kind: overrideUnset}
}

// UseFlag returns an override that explicitly enables or disables
// inheritance of the parent value.
func UseFlag[T any](use bool) Override[T] {
	return Override[T]{kind: overrideFlag, flag: use}
}

// Custom returns an override carrying the task's own value for the axis.
func Custom[T any](v T) Override[T] {
	return Override[T]{kind: overrideCustom, val: v}
}

// IsUnset reports whether the override defers to the parents.
func (o Override[T]) IsUnset() bool {
	return o.kind == overrideUnset
}

// Flag returns the explicit use/don't-use flag, if one was set.
func (o Override[T]) Flag() (bool, bool) {
	return o.flag, o.kind == overrideFlag
}

// Value returns the custom value, if one was set.
func (o Override[T]) Value() (T, bool) {
	return o.val, o.kind == overrideCustom
}

// Resolve applies the override against the already-resolved parent value.
// A nil parent means the parents produced nothing for this axis. Total,
// never fails:
//
//	Unset          -> parent (present or not)
//	UseFlag(true)  -> parent (present or not)
//	UseFlag(false) -> absent
//	Custom(v)      -> v
//
// When the parent value is inherited the returned pointer aliases it; the
// resolver treats resolved values as immutable, so parents and children may
// share backing storage.
func (o Override[T]) Resolve(parent *T) *T {
	switch o.kind {
	case overrideCustom:
		v := o.val
		return &v
	case overrideFlag:
		if !o.flag {
			return nil
		}
		return parent
	default:
		return parent
	}
}

// Mergeable combines an already-resolved base value with an incoming one.
// The incoming side wins conflicts and its entries take positional priority.
type Mergeable[T any] interface {
	Merge(incoming T) T
}

// Inheritable wraps a config value with the choice of merging it into the
// already-resolved parent value or replacing that value outright. It only
// matters on the Custom arm of an Override.
type Inheritable[T Mergeable[T]] struct {
	// Replace drops the parent value instead of merging into it.
	Replace bool
	Config  T
}

// Resolve combines the wrapped config with the parent value. With Replace
// set, or with no parent value at all, the wrapped config stands alone.
func (i Inheritable[T]) Resolve(parent *T) T {
	if i.Replace || parent == nil {
		return i.Config
	}
	return (*parent).Merge(i.Config)
}

// resolveInheritable resolves the two-layer override used by the path and
// env axes: the outer Override decides whether the axis is present at all,
// the inner Inheritable decides how a custom value composes with the parent.
func resolveInheritable[T Mergeable[T]](o Override[Inheritable[T]], parent *T) *T {
	switch o.kind {
	case overrideCustom:
		v := o.val.Resolve(parent)
		return &v
	case overrideFlag:
		if !o.flag {
			return nil
		}
		return parent
	default:
		return parent
	}
}
