package rds

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/carbocation/exprharmony"
	"github.com/carbocation/pfx"
)

// Header describes the serialization stream.
type Header struct {
	Version          int32
	WriterVersion    int32
	MinReaderVersion int32
	NativeEncoding   string
}

type decoder struct {
	r    *bufio.Reader
	refs []*Object
}

// ReadFile decodes the single object stored in an .RDS file, or the first
// object of an .RData file. Compressed files are decompressed first.
func ReadFile(ctx context.Context, path string) (*Object, error) {
	rc, err := exprharmony.Open(ctx, path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer rc.Close()

	obj, _, err := Read(rc)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return obj, nil
}

// Read decodes one object from an uncompressed XDR stream. Streams written
// by save() carry an "RDX2"/"RDX3" signature and a tagged pairlist of named
// objects; in that case the first object is returned.
func Read(r io.Reader) (*Object, Header, error) {
	d := &decoder{r: bufio.NewReader(r)}

	workspace := false
	if sig, err := d.r.Peek(5); err == nil && (bytes.Equal(sig, []byte("RDX2\n")) || bytes.Equal(sig, []byte("RDX3\n"))) {
		workspace = true
		if _, err := d.r.Discard(5); err != nil {
			return nil, Header{}, err
		}
	}

	header, err := d.header()
	if err != nil {
		return nil, header, err
	}

	obj, err := d.item()
	if err != nil {
		return nil, header, err
	}

	if workspace && obj != nil && obj.Type == ListSxp && len(obj.Pairs) > 0 {
		return obj.Pairs[0].Value, header, nil
	}

	return obj, header, nil
}

func (d *decoder) header() (Header, error) {
	var h Header

	format := make([]byte, 2)
	if _, err := io.ReadFull(d.r, format); err != nil {
		return h, fmt.Errorf("reading format: %w", err)
	}
	if format[0] != 'X' || format[1] != '\n' {
		return h, fmt.Errorf("unsupported serialization format %q, only XDR is read", format)
	}

	var err error
	if h.Version, err = d.int(); err != nil {
		return h, err
	}
	if h.WriterVersion, err = d.int(); err != nil {
		return h, err
	}
	if h.MinReaderVersion, err = d.int(); err != nil {
		return h, err
	}

	switch h.Version {
	case 2:
	case 3:
		n, err := d.int()
		if err != nil {
			return h, err
		}
		enc, err := d.bytes(int(n))
		if err != nil {
			return h, err
		}
		h.NativeEncoding = string(enc)
	default:
		return h, fmt.Errorf("unsupported serialization version %d", h.Version)
	}

	return h, nil
}

func (d *decoder) int() (int32, error) {
	var v int32
	if err := binary.Read(d.r, binary.BigEndian, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func (d *decoder) double() (float64, error) {
	var v uint64
	if err := binary.Read(d.r, binary.BigEndian, &v); err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func (d *decoder) bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative byte length %d", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// length reads a vector length, which is split over two ints for long
// vectors.
func (d *decoder) length() (int, error) {
	n, err := d.int()
	if err != nil {
		return 0, err
	}
	if n != -1 {
		if n < 0 {
			return 0, fmt.Errorf("negative vector length %d", n)
		}
		return int(n), nil
	}

	upper, err := d.int()
	if err != nil {
		return 0, err
	}
	lower, err := d.int()
	if err != nil {
		return 0, err
	}

	n64 := int64(uint64(uint32(upper))<<32 | uint64(uint32(lower)))
	if n64 < 0 || int64(int(n64)) != n64 {
		return 0, fmt.Errorf("long vector length %d out of range", n64)
	}

	return int(n64), nil
}

func (d *decoder) item() (*Object, error) {
	flags, err := d.int()
	if err != nil {
		return nil, err
	}
	return d.body(flags)
}

// body decodes an item whose flags word has already been read.
func (d *decoder) body(flags int32) (*Object, error) {
	typ := int(flags & 0xFF)
	hasAttr := flags&(1<<9) != 0
	hasTag := flags&(1<<10) != 0

	switch typ {
	case nilValueSxp:
		return nil, nil
	case emptyEnvSxp, baseEnvSxp, globalEnvSxp, unboundValueSxp, missingArgSxp, baseNamespaceSxp:
		return &Object{Type: EnvSxp}, nil
	case refSxp:
		idx := int(flags >> 8)
		if idx == 0 {
			i, err := d.int()
			if err != nil {
				return nil, err
			}
			idx = int(i)
		}
		if idx < 1 || idx > len(d.refs) {
			return nil, fmt.Errorf("reference %d out of range (%d known)", idx, len(d.refs))
		}
		return d.refs[idx-1], nil
	case persistSxp:
		names, err := d.stringVec()
		if err != nil {
			return nil, err
		}
		obj := &Object{Type: EnvSxp, Strings: names}
		d.refs = append(d.refs, obj)
		return obj, nil
	case SymSxp:
		name, err := d.item()
		if err != nil {
			return nil, err
		}
		obj := &Object{Type: SymSxp}
		if name != nil && len(name.Strings) > 0 {
			obj.Symbol = name.Strings[0]
		}
		d.refs = append(d.refs, obj)
		return obj, nil
	case packageSxp, namespaceSxp:
		names, err := d.stringVec()
		if err != nil {
			return nil, err
		}
		obj := &Object{Type: EnvSxp, Strings: names}
		if len(names) > 0 {
			obj.Symbol = names[0]
		}
		d.refs = append(d.refs, obj)
		return obj, nil
	case EnvSxp:
		return d.environment()
	case ListSxp, LangSxp, CloSxp, PromSxp, DotSxp, attrListSxp, attrLangSxp:
		return d.pairlist(typ, hasAttr, hasTag)
	case altrepSxp:
		return d.altrep()
	case ExtPtrSxp:
		obj := &Object{Type: ExtPtrSxp}
		d.refs = append(d.refs, obj)
		if _, err := d.item(); err != nil {
			return nil, err
		}
		if _, err := d.item(); err != nil {
			return nil, err
		}
		return d.attributes(obj, hasAttr)
	case WeakRefSxp:
		obj := &Object{Type: WeakRefSxp}
		d.refs = append(d.refs, obj)
		return d.attributes(obj, hasAttr)
	case SpecialSxp, BuiltinSxp:
		n, err := d.int()
		if err != nil {
			return nil, err
		}
		name, err := d.bytes(int(n))
		if err != nil {
			return nil, err
		}
		return d.attributes(&Object{Type: typ, Symbol: string(name)}, hasAttr)
	case CharSxp:
		n, err := d.int()
		if err != nil {
			return nil, err
		}
		if n == -1 {
			return &Object{Type: CharSxp, Strings: []string{""}, StringNA: []bool{true}}, nil
		}
		b, err := d.bytes(int(n))
		if err != nil {
			return nil, err
		}
		return &Object{Type: CharSxp, Strings: []string{string(b)}, StringNA: []bool{false}}, nil
	case LglSxp, IntSxp:
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		v := make([]int32, n)
		if err := binary.Read(d.r, binary.BigEndian, v); err != nil {
			return nil, err
		}
		obj := &Object{Type: typ}
		if typ == LglSxp {
			obj.Logicals = v
		} else {
			obj.Ints = v
		}
		return d.attributes(obj, hasAttr)
	case RealSxp:
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		bits := make([]uint64, n)
		if err := binary.Read(d.r, binary.BigEndian, bits); err != nil {
			return nil, err
		}
		v := make([]float64, n)
		for i, b := range bits {
			v[i] = math.Float64frombits(b)
		}
		return d.attributes(&Object{Type: RealSxp, Reals: v}, hasAttr)
	case CplxSxp:
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		v := make([]complex128, n)
		for i := range v {
			re, err := d.double()
			if err != nil {
				return nil, err
			}
			im, err := d.double()
			if err != nil {
				return nil, err
			}
			v[i] = complex(re, im)
		}
		return d.attributes(&Object{Type: CplxSxp, Complexes: v}, hasAttr)
	case StrSxp:
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		obj := &Object{Type: StrSxp, Strings: make([]string, n), StringNA: make([]bool, n)}
		for i := 0; i < n; i++ {
			c, err := d.item()
			if err != nil {
				return nil, err
			}
			if c == nil || c.Type != CharSxp {
				return nil, fmt.Errorf("character vector element %d is not a CHARSXP", i)
			}
			obj.Strings[i], obj.StringNA[i] = c.Strings[0], c.StringNA[0]
		}
		return d.attributes(obj, hasAttr)
	case VecSxp, ExprSxp:
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		obj := &Object{Type: typ, List: make([]*Object, n)}
		for i := 0; i < n; i++ {
			if obj.List[i], err = d.item(); err != nil {
				return nil, err
			}
		}
		return d.attributes(obj, hasAttr)
	case RawSxp:
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		b, err := d.bytes(n)
		if err != nil {
			return nil, err
		}
		return d.attributes(&Object{Type: RawSxp, Raw: b}, hasAttr)
	case S4Sxp:
		return d.attributes(&Object{Type: S4Sxp}, hasAttr)
	}

	return nil, fmt.Errorf("unsupported SEXP type %d", typ)
}

func (d *decoder) attributes(obj *Object, hasAttr bool) (*Object, error) {
	if !hasAttr {
		return obj, nil
	}

	attr, err := d.item()
	if err != nil {
		return nil, err
	}
	if attr != nil {
		obj.Attributes = attr.Pairs
	}

	return obj, nil
}

func (d *decoder) stringVec() ([]string, error) {
	if _, err := d.int(); err != nil {
		return nil, err
	}
	n, err := d.int()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("negative name count %d", n)
	}

	out := make([]string, 0, n)
	for i := int32(0); i < n; i++ {
		c, err := d.item()
		if err != nil {
			return nil, err
		}
		if c != nil && len(c.Strings) > 0 {
			out = append(out, c.Strings[0])
		}
	}

	return out, nil
}

func (d *decoder) environment() (*Object, error) {
	obj := &Object{Type: EnvSxp}
	d.refs = append(d.refs, obj)

	// locked flag, then enclosure, frame, hash table and attributes
	if _, err := d.int(); err != nil {
		return nil, err
	}
	for i := 0; i < 3; i++ {
		if _, err := d.item(); err != nil {
			return nil, err
		}
	}
	attr, err := d.item()
	if err != nil {
		return nil, err
	}
	if attr != nil {
		obj.Attributes = attr.Pairs
	}

	return obj, nil
}

// pairlist reads a chain of pairlist nodes. The CDR chain is followed
// iteratively so long lists do not recurse.
func (d *decoder) pairlist(typ int, hasAttr, hasTag bool) (*Object, error) {
	head := &Object{Type: typ}
	if typ == attrListSxp {
		head.Type = ListSxp
	} else if typ == attrLangSxp {
		head.Type = LangSxp
	}

	first := true
	for {
		var attrs []Pair
		if hasAttr {
			a, err := d.item()
			if err != nil {
				return nil, err
			}
			if a != nil {
				attrs = a.Pairs
			}
		}
		if first {
			head.Attributes = attrs
		}

		var p Pair
		if hasTag {
			tag, err := d.item()
			if err != nil {
				return nil, err
			}
			if tag != nil {
				p.Tag = tag.Symbol
			}
		}

		car, err := d.item()
		if err != nil {
			return nil, err
		}
		p.Value = car
		head.Pairs = append(head.Pairs, p)
		first = false

		// Peek at the CDR: another node of a pairlist type continues the
		// chain, anything else terminates it.
		flags, err := d.int()
		if err != nil {
			return nil, err
		}
		next := int(flags & 0xFF)
		switch next {
		case ListSxp, LangSxp, CloSxp, PromSxp, DotSxp, attrListSxp, attrLangSxp:
			hasAttr = flags&(1<<9) != 0
			hasTag = flags&(1<<10) != 0
			continue
		case nilValueSxp:
			return head, nil
		}

		// A dotted pair: read the remaining CDR as a regular item.
		cdr, err := d.body(flags)
		if err != nil {
			return nil, err
		}
		head.Pairs = append(head.Pairs, Pair{Value: cdr})
		return head, nil
	}
}

// altrep expands the compact and wrapper ALTREP classes written by R 3.5+.
func (d *decoder) altrep() (*Object, error) {
	info, err := d.item()
	if err != nil {
		return nil, err
	}
	state, err := d.item()
	if err != nil {
		return nil, err
	}
	attr, err := d.item()
	if err != nil {
		return nil, err
	}

	if info == nil || len(info.Pairs) == 0 || info.Pairs[0].Value == nil {
		return nil, fmt.Errorf("ALTREP object without class information")
	}
	class := info.Pairs[0].Value.Symbol

	var obj *Object
	switch class {
	case "compact_intseq", "compact_realseq":
		if state == nil || len(state.Float64s()) < 3 {
			return nil, fmt.Errorf("%s: malformed state", class)
		}
		s := state.Float64s()
		n, start, step := int(s[0]), s[1], s[2]
		if class == "compact_intseq" {
			v := make([]int32, n)
			for i := range v {
				v[i] = int32(start + float64(i)*step)
			}
			obj = &Object{Type: IntSxp, Ints: v}
		} else {
			v := make([]float64, n)
			for i := range v {
				v[i] = start + float64(i)*step
			}
			obj = &Object{Type: RealSxp, Reals: v}
		}
	case "wrap_real", "wrap_integer", "wrap_logical", "wrap_string", "wrap_complex", "wrap_raw", "wrap_list":
		if state == nil || len(state.Pairs) == 0 || state.Pairs[0].Value == nil {
			return nil, fmt.Errorf("%s: malformed state", class)
		}
		wrapped := *state.Pairs[0].Value
		obj = &wrapped
	case "deferred_string":
		if state == nil || len(state.Pairs) == 0 || state.Pairs[0].Value == nil {
			return nil, fmt.Errorf("%s: malformed state", class)
		}
		obj = deferredStrings(state.Pairs[0].Value)
	default:
		return nil, fmt.Errorf("unsupported ALTREP class %q", class)
	}

	if attr != nil {
		obj.Attributes = attr.Pairs
	}

	return obj, nil
}

// deferredStrings renders the numeric vector behind an as.character() call.
func deferredStrings(arg *Object) *Object {
	out := &Object{Type: StrSxp}
	switch arg.Type {
	case IntSxp, LglSxp:
		src := arg.Ints
		if arg.Type == LglSxp {
			src = arg.Logicals
		}
		for _, v := range src {
			if v == NAInteger {
				out.Strings = append(out.Strings, "")
				out.StringNA = append(out.StringNA, true)
				continue
			}
			out.Strings = append(out.Strings, strconv.Itoa(int(v)))
			out.StringNA = append(out.StringNA, false)
		}
	case RealSxp:
		for _, v := range arg.Reals {
			if math.IsNaN(v) {
				out.Strings = append(out.Strings, "")
				out.StringNA = append(out.StringNA, true)
				continue
			}
			out.Strings = append(out.Strings, strconv.FormatFloat(v, 'g', 15, 64))
			out.StringNA = append(out.StringNA, false)
		}
	}
	return out
}
