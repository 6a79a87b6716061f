package runtime

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/wippyai/grain-runtime/tags"
)

// toString walks the tagged graph and produces the canonical textual
// rendering. Strings and chars print bare at the outermost level and
// quoted inside compounds. Mutable compounds are tracked on a walk stack:
// re-entering one emits <cycle to <N>> and stamps a <N> prefix on the
// outermost occurrence so the back-reference can be read.

// bytesPreviewLimit caps the hex dump of a bytes value.
const bytesPreviewLimit = 32

// ToString renders v.
func (rt *Runtime) ToString(v uint32) (string, error) {
	p := &valuePrinter{
		rt:       rt,
		onStack:  make(map[uint32]int),
		ordinals: make(map[uint32]int),
	}
	if err := p.render(v, true, 0); err != nil {
		return "", err
	}
	return p.assemble(), nil
}

// Print renders v and writes it with the suffix to stdout.
func (rt *Runtime) Print(v uint32, suffix string) error {
	s, err := rt.ToString(v)
	if err != nil {
		return err
	}
	_, err = rt.stdout.Write([]byte(s + suffix))
	return err
}

type cycleMark struct {
	pos int
	obj uint32
}

type valuePrinter struct {
	rt       *Runtime
	buf      strings.Builder
	onStack  map[uint32]int // object -> buffer offset of its rendering
	ordinals map[uint32]int
	marks    []cycleMark
}

// assemble injects the <N> prefixes recorded during the walk.
func (p *valuePrinter) assemble() string {
	s := p.buf.String()
	if len(p.marks) == 0 {
		return s
	}
	sort.Slice(p.marks, func(i, j int) bool { return p.marks[i].pos > p.marks[j].pos })
	for _, m := range p.marks {
		prefix := fmt.Sprintf("<%d> ", p.ordinals[m.obj])
		s = s[:m.pos] + prefix + s[m.pos:]
	}
	return s
}

func (p *valuePrinter) render(v uint32, top bool, indent int) error {
	rt := p.rt

	if tags.IsSimpleNumber(v) {
		p.buf.WriteString(strconv.FormatInt(int64(tags.SimpleValue(v)), 10))
		return nil
	}
	if tags.IsShort(v) {
		p.renderShort(v, top)
		return nil
	}
	if tags.IsConst(v) {
		switch v {
		case tags.ValueTrue:
			p.buf.WriteString("true")
		case tags.ValueFalse:
			p.buf.WriteString("false")
		case tags.ValueVoid:
			p.buf.WriteString("void")
		default:
			p.buf.WriteString("()")
		}
		return nil
	}

	kind, ok := rt.HeapKindOf(v)
	if !ok {
		rt.Panic(fmt.Sprintf("toString of malformed word %#x", v))
	}
	switch kind {
	case tags.KindString:
		n := rt.readU32(v + tags.BytesLengthOffset)
		s := string(rt.readBytes(v+tags.BytesPayloadOffset, n))
		if top {
			p.buf.WriteString(s)
		} else {
			p.buf.WriteString(quoteString(s))
		}
		return nil
	case tags.KindBytes:
		p.renderBytes(v)
		return nil
	case tags.KindLambda:
		p.buf.WriteString("<lambda>")
		return nil
	case tags.KindInt32:
		p.buf.WriteString(strconv.FormatInt(int64(int32(rt.readU32(v+tags.Scalar32PayloadOffset))), 10))
		return nil
	case tags.KindUint32:
		p.buf.WriteString(strconv.FormatUint(uint64(rt.readU32(v+tags.Scalar32PayloadOffset)), 10))
		return nil
	case tags.KindFloat32:
		p.buf.WriteString(formatFloat(float64(math.Float32frombits(rt.readU32(v + tags.Scalar32PayloadOffset)))))
		return nil
	case tags.KindBoxedNumber:
		return p.renderBoxed(v)
	case tags.KindTuple:
		return p.renderMutable(v, indent, p.renderTuple)
	case tags.KindArray:
		return p.renderMutable(v, indent, p.renderArray)
	case tags.KindRecord:
		return p.renderMutable(v, indent, p.renderRecord)
	case tags.KindADT:
		return p.renderADT(v, indent)
	default:
		rt.Panic(fmt.Sprintf("toString of unknown heap kind %d at %#x", kind, v))
		return nil
	}
}

// renderMutable wraps the cycle bookkeeping around a mutable compound.
func (p *valuePrinter) renderMutable(v uint32, indent int, body func(uint32, int) error) error {
	if _, active := p.onStack[v]; active {
		ord, seen := p.ordinals[v]
		if !seen {
			ord = len(p.ordinals) + 1
			p.ordinals[v] = ord
			p.marks = append(p.marks, cycleMark{pos: p.onStack[v], obj: v})
		}
		fmt.Fprintf(&p.buf, "<cycle to <%d>>", ord)
		return nil
	}
	p.onStack[v] = p.buf.Len()
	err := body(v, indent)
	delete(p.onStack, v)
	return err
}

func (p *valuePrinter) renderTuple(v uint32, indent int) error {
	arity := p.rt.readU32(v + tags.TupleArityOffset)
	if arity == 1 {
		// Unary tuples are not valid source; they arise from runtime
		// constructs and render as box(a).
		p.buf.WriteString("box(")
		if err := p.render(p.rt.readU32(v+tags.TuplePayloadOffset), false, indent); err != nil {
			return err
		}
		p.buf.WriteString(")")
		return nil
	}
	p.buf.WriteString("(")
	for i := uint32(0); i < arity; i++ {
		if i > 0 {
			p.buf.WriteString(", ")
		}
		if err := p.render(p.rt.readU32(v+tags.TuplePayloadOffset+4*i), false, indent); err != nil {
			return err
		}
	}
	p.buf.WriteString(")")
	return nil
}

func (p *valuePrinter) renderArray(v uint32, indent int) error {
	arity := p.rt.readU32(v + tags.TupleArityOffset)
	p.buf.WriteString("[>")
	for i := uint32(0); i < arity; i++ {
		if i > 0 {
			p.buf.WriteString(",")
		}
		p.buf.WriteString(" ")
		if err := p.render(p.rt.readU32(v+tags.TuplePayloadOffset+4*i), false, indent); err != nil {
			return err
		}
	}
	p.buf.WriteString("]")
	return nil
}

func (p *valuePrinter) renderRecord(v uint32, indent int) error {
	typeHash := p.rt.readU32(v + tags.RecordTypeHashOffset)
	arity := p.rt.readU32(v + tags.RecordArityOffset)
	fields := p.recordFieldNames(typeHash, arity)
	return p.renderFieldBlock(v+tags.RecordPayloadOffset, arity, fields, indent)
}

// renderFieldBlock prints the { field: value } body shared by records and
// inline-record constructors.
func (p *valuePrinter) renderFieldBlock(base, arity uint32, fields []string, indent int) error {
	p.buf.WriteString("{\n")
	pad := strings.Repeat("  ", indent+1)
	for i := uint32(0); i < arity; i++ {
		p.buf.WriteString(pad)
		p.buf.WriteString(fields[i])
		p.buf.WriteString(": ")
		if err := p.render(p.rt.readU32(base+4*i), false, indent+1); err != nil {
			return err
		}
		if i+1 < arity {
			p.buf.WriteString(",")
		}
		p.buf.WriteString("\n")
	}
	p.buf.WriteString(strings.Repeat("  ", indent))
	p.buf.WriteString("}")
	return nil
}

func (p *valuePrinter) recordFieldNames(typeHash, arity uint32) []string {
	rt := p.rt
	if rt.meta == nil {
		rt.Panic(fmt.Sprintf("record type %#x printed with no type-metadata table", typeHash))
	}
	descOff, ok := rt.meta.Lookup(typeHash)
	if !ok {
		rt.Panic(fmt.Sprintf("record type %#x missing from type-metadata table", typeHash))
	}
	fields, err := rt.meta.RecordFields(descOff)
	if err != nil || uint32(len(fields)) != arity {
		rt.Panic(fmt.Sprintf("record type %#x has corrupt field metadata: %v", typeHash, err))
	}
	return fields
}

func (p *valuePrinter) renderADT(v uint32, indent int) error {
	rt := p.rt
	typeID := rt.readU32(v + tags.ADTTypeIDOffset)
	variantID := rt.readU32(v + tags.ADTVariantOffset)
	arity := rt.readU32(v + tags.ADTArityOffset)

	switch typeID {
	case tags.BuiltinList:
		return p.renderList(v, indent)
	case tags.BuiltinOption:
		if variantID == tags.VariantOptionNone {
			p.buf.WriteString("None")
			return nil
		}
		return p.renderCtorArgs("Some", v, arity, indent)
	case tags.BuiltinResult:
		name := "Ok"
		if variantID == tags.VariantResultErr {
			name = "Err"
		}
		return p.renderCtorArgs(name, v, arity, indent)
	case tags.BuiltinRange:
		return p.renderFieldBlock(v+tags.ADTPayloadOffset, arity,
			[]string{"rangeStart", "rangeEnd"}, indent)
	case tags.BuiltinException:
		return p.renderCtorArgs(exceptionVariantName(variantID), v, arity, indent)
	}

	if rt.meta == nil {
		rt.Panic(fmt.Sprintf("variant of type %#x printed with no type-metadata table",
			rt.readU32(v+tags.ADTTypeHashOffset)))
	}
	typeHash := rt.readU32(v + tags.ADTTypeHashOffset)
	descOff, ok := rt.meta.Lookup(typeHash)
	if !ok {
		rt.Panic(fmt.Sprintf("variant type %#x missing from type-metadata table", typeHash))
	}
	info, err := rt.meta.Variant(descOff, variantID)
	if err != nil {
		rt.Panic(fmt.Sprintf("variant %d of type %#x has corrupt metadata: %v", variantID, typeHash, err))
	}
	if info.Fields != nil {
		if uint32(len(info.Fields)) != arity {
			rt.Panic(fmt.Sprintf("variant %s arity %d disagrees with metadata", info.Name, arity))
		}
		p.buf.WriteString(info.Name)
		return p.renderFieldBlock(v+tags.ADTPayloadOffset, arity, info.Fields, indent)
	}
	return p.renderCtorArgs(info.Name, v, arity, indent)
}

func (p *valuePrinter) renderCtorArgs(name string, v, arity uint32, indent int) error {
	p.buf.WriteString(name)
	if arity == 0 {
		return nil
	}
	p.buf.WriteString("(")
	for i := uint32(0); i < arity; i++ {
		if i > 0 {
			p.buf.WriteString(", ")
		}
		if err := p.render(p.rt.readU32(v+tags.ADTPayloadOffset+4*i), false, indent); err != nil {
			return err
		}
	}
	p.buf.WriteString(")")
	return nil
}

func (p *valuePrinter) renderList(v uint32, indent int) error {
	rt := p.rt
	p.buf.WriteString("[")
	first := true
	for rt.readU32(v+tags.ADTVariantOffset) == tags.VariantListCons {
		if !first {
			p.buf.WriteString(", ")
		}
		first = false
		if err := p.render(rt.readU32(v+tags.ADTPayloadOffset), false, indent); err != nil {
			return err
		}
		v = rt.readU32(v + tags.ADTPayloadOffset + 4)
	}
	p.buf.WriteString("]")
	return nil
}

func (p *valuePrinter) renderBytes(v uint32) {
	n := p.rt.readU32(v + tags.BytesLengthOffset)
	preview := n
	if preview > bytesPreviewLimit {
		preview = bytesPreviewLimit
	}
	payload := p.rt.readBytes(v+tags.BytesPayloadOffset, preview)
	p.buf.WriteString("<bytes:")
	for _, b := range payload {
		fmt.Fprintf(&p.buf, " %02x", b)
	}
	if n > bytesPreviewLimit {
		p.buf.WriteString(" ...")
	}
	p.buf.WriteString(">")
}

func (p *valuePrinter) renderBoxed(v uint32) error {
	rt := p.rt
	switch tags.BoxedKind(rt.readU32(v + tags.BoxedSubTagOffset)) {
	case tags.BoxedInt64:
		p.buf.WriteString(strconv.FormatInt(int64(rt.readU64(v+tags.BoxedPayloadOffset)), 10))
	case tags.BoxedUint64:
		p.buf.WriteString(strconv.FormatUint(rt.readU64(v+tags.BoxedPayloadOffset), 10))
	case tags.BoxedFloat64:
		p.buf.WriteString(formatFloat(math.Float64frombits(rt.readU64(v + tags.BoxedPayloadOffset))))
	case tags.BoxedBigInt:
		p.buf.WriteString(rt.bigIntValue(v).String())
	case tags.BoxedRational:
		num := rt.bigIntValue(rt.readU32(v + tags.RationalNumOffset))
		den := rt.bigIntValue(rt.readU32(v + tags.RationalDenOffset))
		p.buf.WriteString(num.String())
		p.buf.WriteString("/")
		p.buf.WriteString(den.String())
	default:
		rt.Panic(fmt.Sprintf("toString of unknown boxed sub-tag at %#x", v))
	}
	return nil
}

// renderShort prints the fixed-width shorts with their literal suffixes
// so distinct kinds never share a rendering. Chars print bare at the top
// level and quoted inside compounds.
func (p *valuePrinter) renderShort(v uint32, top bool) {
	switch tags.ShortKindOf(v) {
	case tags.ShortChar:
		r := tags.CharValue(v)
		if top {
			p.buf.WriteRune(r)
		} else {
			p.buf.WriteString(quoteChar(r))
		}
	case tags.ShortInt8:
		fmt.Fprintf(&p.buf, "%ds", tags.ShortSigned(v))
	case tags.ShortInt16:
		fmt.Fprintf(&p.buf, "%dS", tags.ShortSigned(v))
	case tags.ShortUint8:
		fmt.Fprintf(&p.buf, "%dus", tags.ShortPayload(v))
	case tags.ShortUint16:
		fmt.Fprintf(&p.buf, "%duS", tags.ShortPayload(v))
	}
}

// formatFloat renders the shortest decimal that round-trips, with a
// trailing .0 for integral finite values printed without an exponent.
// Exponent-form output (1e+06, 1e-05) gets no .0.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

var charEscapes = map[rune]string{
	'\b': `\b`,
	'\f': `\f`,
	'\n': `\n`,
	'\r': `\r`,
	'\t': `\t`,
	'\v': `\v`,
	'\\': `\\`,
}

func quoteChar(r rune) string {
	var b strings.Builder
	b.WriteString("'")
	if esc, ok := charEscapes[r]; ok {
		b.WriteString(esc)
	} else if r == '\'' {
		b.WriteString(`\'`)
	} else {
		b.WriteRune(r)
	}
	b.WriteString("'")
	return b.String()
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteString(`"`)
	for _, r := range s {
		if esc, ok := charEscapes[r]; ok {
			b.WriteString(esc)
		} else if r == '"' {
			b.WriteString(`\"`)
		} else {
			b.WriteRune(r)
		}
	}
	b.WriteString(`"`)
	return b.String()
}
