// Package symerr provides the standardized error taxonomy used throughout
// the symbol builder: every recoverable failure surfaced by symstore is a
// *StoreError carrying one of the six categories below.
package symerr

import (
	"fmt"
	"runtime"
)

// Category classifies a StoreError into one of the taxonomy's six kinds.
type Category string

const (
	InvalidArgument Category = "INVALID_ARGUMENT"
	InvalidState    Category = "INVALID_STATE"
	NotFound        Category = "NOT_FOUND"
	OutOfMemory     Category = "OUT_OF_MEMORY"
	Unsupported     Category = "UNSUPPORTED"
	ImportFailure   Category = "IMPORT_FAILURE"
)

// StoreError is the concrete error type for all recoverable symstore failures.
type StoreError struct {
	Category Category
	Code     string
	Message  string
	Context  map[string]interface{}
	Caller   string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("[%s:%s] %s (caller: %s)", e.Category, e.Code, e.Message, e.Caller)
}

// New creates a StoreError, capturing the immediate caller for diagnostics.
func New(category Category, code, message string, context map[string]interface{}) *StoreError {
	pc, _, _, ok := runtime.Caller(1)

	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &StoreError{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
	}
}

// Is reports whether err is a *StoreError of the given category, so callers
// can branch on taxonomy without type-asserting the concrete struct.
func Is(err error, category Category) bool {
	se, ok := err.(*StoreError)
	return ok && se.Category == category
}

// Common constructors, mirroring the shape of each call site's needs.

func NotFoundf(code string, ctx map[string]interface{}, format string, args ...interface{}) *StoreError {
	return New(NotFound, code, fmt.Sprintf(format, args...), ctx)
}

func InvalidArgumentf(code string, ctx map[string]interface{}, format string, args ...interface{}) *StoreError {
	return New(InvalidArgument, code, fmt.Sprintf(format, args...), ctx)
}

func InvalidStatef(code string, ctx map[string]interface{}, format string, args ...interface{}) *StoreError {
	return New(InvalidState, code, fmt.Sprintf(format, args...), ctx)
}

func Unsupportedf(code string, ctx map[string]interface{}, format string, args ...interface{}) *StoreError {
	return New(Unsupported, code, fmt.Sprintf(format, args...), ctx)
}

func ImportFailuref(code string, ctx map[string]interface{}, format string, args ...interface{}) *StoreError {
	return New(ImportFailure, code, fmt.Sprintf(format, args...), ctx)
}

func OutOfMemoryf(code string, ctx map[string]interface{}, format string, args ...interface{}) *StoreError {
	return New(OutOfMemory, code, fmt.Sprintf(format, args...), ctx)
}

// UnknownID returns the NotFound error for a dangling symbol id lookup.
func UnknownID(id uint32) *StoreError {
	return NotFoundf("UNKNOWN_ID", map[string]interface{}{"id": id}, "no symbol with id %d", id)
}

// NameTaken returns the InvalidArgument error for a qualified-name collision.
func NameTaken(name string) *StoreError {
	return InvalidArgumentf("NAME_TAKEN", map[string]interface{}{"name": name}, "qualified name %q already registered", name)
}

// WrongKind returns the Unsupported error for a property applied to a kind that forbids it.
func WrongKind(op, kind string) *StoreError {
	return Unsupportedf("WRONG_KIND", map[string]interface{}{"op": op, "kind": kind}, "%s does not apply to symbol kind %s", op, kind)
}

// LayoutNotReady returns the InvalidState error for reading a layout-derived
// property before the layout pass has run at least once.
func LayoutNotReady(id uint32) *StoreError {
	return InvalidStatef("LAYOUT_NOT_READY", map[string]interface{}{"id": id}, "layout has not been computed for symbol %d", id)
}

// RangeOverlap returns the InvalidArgument error for an overlapping live range.
func RangeOverlap(variable uint32) *StoreError {
	return InvalidArgumentf("RANGE_OVERLAP", map[string]interface{}{"variable": variable}, "live range overlaps an existing range for variable %d", variable)
}
