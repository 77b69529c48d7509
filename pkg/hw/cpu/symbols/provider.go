// Package symbols defines the uniform, backend-neutral contract that every
// symbol provider in Cucaracha implements: the DWARF core in
// pkg/hw/cpu/dwarf today, and (not part of this change) a PDB/DIA backend
// for Windows-produced binaries tomorrow. Consumers — the live debugger,
// the expression evaluator, the CLI — talk to this interface and never to a
// specific backend's internals, so either can be swapped in behind it.
package symbols

// TagKind classifies a type symbol the way a debugger frontend needs to,
// independent of the backend's own tag encoding (DWARF tags, PDB SymTagEnum,
// ...).
type TagKind int

const (
	TagUnknown TagKind = iota
	TagBase
	TagPointer
	TagArray
	TagStruct
	TagUnion
	TagClass
	TagEnum
	TagFunction
	TagTypedef
)

func (k TagKind) String() string {
	switch k {
	case TagBase:
		return "base"
	case TagPointer:
		return "pointer"
	case TagArray:
		return "array"
	case TagStruct:
		return "struct"
	case TagUnion:
		return "union"
	case TagClass:
		return "class"
	case TagEnum:
		return "enum"
	case TagFunction:
		return "function"
	case TagTypedef:
		return "typedef"
	default:
		return "unknown"
	}
}

// FieldInfo describes one field of a struct/union/class type.
type FieldInfo struct {
	Name       string
	TypeID     uint32
	ByteOffset uint64
}

// VarLocationKind classifies how a VarLocation should be interpreted.
type VarLocationKind int

const (
	VarLocUnknown VarLocationKind = iota
	VarLocAddress
	VarLocRegister
	VarLocConstant
)

// VarLocation is the resolved storage location of a local variable or
// parameter, as produced by a backend's location-expression evaluator.
type VarLocation struct {
	Kind     VarLocationKind
	Address  uint64
	Register uint32
	Constant int64
}

// Local is one frame-local variable or parameter as reported by
// Provider.FrameLocals.
type Local struct {
	Name     string
	TypeID   uint32
	Location VarLocation
}

// FrameDescriptor carries whatever a backend needs to evaluate DWARF-style
// location expressions relative to a stack frame. FrameBase is the already
// -evaluated value of the frame's DW_AT_frame_base expression (e.g. the
// current stack pointer plus a fixed offset); higher layers compute it once
// per frame and pass it down so the symbol provider never needs direct
// access to live register state.
type FrameDescriptor struct {
	FrameBase int64
}

// Provider is the uniform, read-only symbol-provider contract (see
// SPEC_FULL.md §3). Every method degrades gracefully: an unresolvable query
// returns ok == false (or a zero-value result), never a panic or error.
type Provider interface {
	// TypeTag reports what kind of type typeID names.
	TypeTag(typeID uint32) (TagKind, bool)

	// TypeSize reports the size in bytes of typeID's representation.
	TypeSize(typeID uint32) (uint64, bool)

	// TypeID resolves a type name to its opaque id.
	TypeID(name string) (uint32, bool)

	// TypeName resolves a type id back to its declared name.
	TypeName(typeID uint32) (string, bool)

	// ElementType reports the pointee/element/underlying type of a
	// pointer, array, or typedef.
	ElementType(typeID uint32) (uint32, bool)

	// FieldNames lists the member names of a struct/union/class type, in
	// declaration order.
	FieldNames(typeID uint32) ([]string, bool)

	// FieldTypeAndOffset resolves one named field of a struct/union/class
	// type to its type id and byte offset.
	FieldTypeAndOffset(typeID uint32, fieldName string) (FieldInfo, bool)

	// SourceLineAt maps a runtime address (process-relative and image
	// -relative, for backends that need both) to a source file/line and
	// the byte displacement from the start of that line's instruction
	// range. A zero-value file name with displacement set to the input
	// address indicates "no line info", never an error.
	SourceLineAt(processAddress, relativeAddress uint64) (file string, line int, displacement uint64)

	// FunctionAt maps a runtime address to the enclosing function name and
	// the byte displacement from its entry point.
	FunctionAt(processAddress, relativeAddress uint64) (name string, displacement uint64)

	// FrameLocals enumerates the variables visible at relativeAddress
	// within the given frame, optionally restricted to parameters.
	FrameLocals(frame FrameDescriptor, relativeAddress uint64, argumentsOnly bool) []Local
}
