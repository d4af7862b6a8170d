// Package natives bridges the native-symbol catalog — the list of built-in
// types, type templates and free functions a real toolchain ships — to
// scope-resolved symbols (spec component 4.B). The core depends only on
// this package's lookup surface; the catalog's *contents* below are the
// minimal set the rest of the pipeline (and its tests) exercise, standing
// in for a fuller registry a real front-end would load from elsewhere.
package natives

// numericKind classifies a native numeric type for conversion-table
// construction.
type numericKind int

const (
	signedInt numericKind = iota
	unsignedInt
	float
)

type numericDescriptor struct {
	name   string
	kind   numericKind
	bits   int
	irType string
}

// numerics is the table-driven descriptor list for every native numeric
// type, in the style of the teacher's BaseProvider.BuildMappings: a flat
// table the registry walks once at Init to build both the scope symbols
// and the conversion tables, rather than one hand-written block per type.
var numerics = []numericDescriptor{
	{"Int8", signedInt, 8, "i8"},
	{"Int16", signedInt, 16, "i16"},
	{"Int32", signedInt, 32, "i32"},
	{"Int64", signedInt, 64, "i64"},
	{"UInt8", unsignedInt, 8, "i8"},
	{"UInt16", unsignedInt, 16, "i16"},
	{"UInt32", unsignedInt, 32, "i32"},
	{"UInt64", unsignedInt, 64, "i64"},
	{"Int", signedInt, 64, "i64"},
	{"Float32", float, 32, "f32"},
	{"Float64", float, 64, "f64"},
}

// arithmeticOps, bitwiseOps and comparisonOps are the operator-function
// names synthesized on every numeric type's self-scope. Bitwise ops are
// skipped for float kinds.
var arithmeticOps = []string{"op_addition", "op_subtraction", "op_multiplication", "op_division", "op_modulus"}
var bitwiseOps = []string{"op_bit_and", "op_bit_or", "op_bit_xor", "op_left_shift", "op_right_shift"}
var comparisonOps = []string{"op_equals", "op_not_equals", "op_less_than", "op_greater_than", "op_less_than_equals", "op_greater_than_equals"}

// widens reports whether `to` can losslessly represent every value `from`
// can, i.e. whether an implicit (rather than merely explicit) numeric
// conversion exists from `from` to `to`.
func widens(from, to numericDescriptor) bool {
	if from.name == to.name {
		return false
	}
	if from.kind == float && to.kind != float {
		return false
	}
	if from.kind != float && to.kind == float {
		return to.bits >= 32 && from.bits < to.bits+1 // any integer fits a wide-enough float in this catalog
	}
	if from.kind == float && to.kind == float {
		return from.bits <= to.bits
	}
	if from.kind == unsignedInt && to.kind == signedInt {
		return to.bits > from.bits
	}
	if from.kind == signedInt && to.kind == unsignedInt {
		return false
	}
	return from.bits <= to.bits
}
