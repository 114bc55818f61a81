// Package rds reads R objects serialized in the XDR format, as produced by
// saveRDS and save. Only the object kinds that carry data are decoded;
// closures, bytecode and environments are skipped over or rejected.
package rds

import (
	"math"
)

// SEXPTYPE codes, from R's Rinternals.h and serialize.c.
const (
	NilSxp     = 0
	SymSxp     = 1
	ListSxp    = 2
	CloSxp     = 3
	EnvSxp     = 4
	PromSxp    = 5
	LangSxp    = 6
	SpecialSxp = 7
	BuiltinSxp = 8
	CharSxp    = 9
	LglSxp     = 10
	IntSxp     = 13
	RealSxp    = 14
	CplxSxp    = 15
	StrSxp     = 16
	DotSxp     = 17
	VecSxp     = 19
	ExprSxp    = 20
	BCodeSxp   = 21
	ExtPtrSxp  = 22
	WeakRefSxp = 23
	RawSxp     = 24
	S4Sxp      = 25

	altrepSxp        = 238
	attrListSxp      = 239
	attrLangSxp      = 240
	baseEnvSxp       = 241
	emptyEnvSxp      = 242
	genericRefSxp    = 245
	classRefSxp      = 246
	persistSxp       = 247
	packageSxp       = 248
	namespaceSxp     = 249
	baseNamespaceSxp = 250
	missingArgSxp    = 251
	unboundValueSxp  = 252
	globalEnvSxp     = 253
	nilValueSxp      = 254
	refSxp           = 255
)

// NAInteger is R's integer NA.
const NAInteger = math.MinInt32

// Object is a decoded R object. Which value field is populated depends on
// Type. A nil *Object is R's NULL.
type Object struct {
	Type int

	Symbol    string     // SymSxp, and the name of environments and namespaces
	Logicals  []int32    // LglSxp, NA is NAInteger
	Ints      []int32    // IntSxp, NA is NAInteger
	Reals     []float64  // RealSxp, NA is a NaN
	Complexes []complex128
	Strings   []string // StrSxp and CharSxp (one element)
	StringNA  []bool   // StrSxp and CharSxp
	Raw       []byte
	List      []*Object // VecSxp, ExprSxp
	Pairs     []Pair    // ListSxp and language objects

	Attributes []Pair
}

// Pair is one node of an R pairlist. Tag is empty for untagged nodes.
type Pair struct {
	Tag   string
	Value *Object
}

// Attr returns the attribute with the given name, or nil.
func (o *Object) Attr(name string) *Object {
	if o == nil {
		return nil
	}
	for _, a := range o.Attributes {
		if a.Tag == name {
			return a.Value
		}
	}
	return nil
}

// Len is the R length of a vector object.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}

	switch o.Type {
	case LglSxp:
		return len(o.Logicals)
	case IntSxp:
		return len(o.Ints)
	case RealSxp:
		return len(o.Reals)
	case CplxSxp:
		return len(o.Complexes)
	case StrSxp:
		return len(o.Strings)
	case RawSxp:
		return len(o.Raw)
	case VecSxp, ExprSxp:
		return len(o.List)
	case ListSxp, LangSxp:
		return len(o.Pairs)
	}

	return 1
}

// Class returns the class attribute.
func (o *Object) Class() []string {
	c := o.Attr("class")
	if c == nil {
		return nil
	}
	return c.Strings
}

// Inherits is true when name is among the classes of o.
func (o *Object) Inherits(name string) bool {
	for _, c := range o.Class() {
		if c == name {
			return true
		}
	}
	return false
}

// IsNumeric is true for logical, integer and double vectors.
func (o *Object) IsNumeric() bool {
	if o == nil {
		return false
	}
	switch o.Type {
	case LglSxp, IntSxp, RealSxp:
		return true
	}
	return false
}

// Float64s returns a numeric vector as float64, mapping NA to NaN.
func (o *Object) Float64s() []float64 {
	if o == nil {
		return nil
	}

	switch o.Type {
	case RealSxp:
		return o.Reals
	case IntSxp:
		return intsToFloats(o.Ints)
	case LglSxp:
		return intsToFloats(o.Logicals)
	}

	return nil
}

// Dim returns the dim attribute as ints.
func (o *Object) Dim() []int {
	d := o.Attr("dim")
	if d == nil {
		return nil
	}

	out := make([]int, 0, d.Len())
	for _, v := range d.Float64s() {
		out = append(out, int(v))
	}
	return out
}

// StringValues returns a character vector, with NA elements rendered as "NA".
func (o *Object) StringValues() []string {
	if o == nil || o.Type != StrSxp {
		return nil
	}

	out := make([]string, len(o.Strings))
	for i, v := range o.Strings {
		if o.StringNA[i] {
			out[i] = "NA"
			continue
		}
		out[i] = v
	}
	return out
}

func intsToFloats(in []int32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		if v == NAInteger {
			out[i] = math.NaN()
			continue
		}
		out[i] = float64(v)
	}
	return out
}
