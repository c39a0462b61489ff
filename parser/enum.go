package parser

import (
	"go/constant"
	"go/types"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/teranos/mirror/metadata"
)

// enum extracts a //mirror:enum declaration. The type must have an integer
// underlying type; its constants are the package-level constants of that type
// declared in the same file, so the header alone decides the generated labels.
func (x *extractor) enum(d declaration) error {
	t := x.newType(d)
	t.IsEnum = true

	for _, arg := range d.directive.Args {
		if arg != "dev" {
			x.parser.warn(x.pos(d.spec.Pos()), "unknown option %q on //mirror:enum %s", arg, t.Name)
		}
	}

	obj, ok := x.pkg.info.Defs[d.spec.Name].(*types.TypeName)
	if !ok {
		return x.errorf(d.spec.Pos(), "cannot resolve enum %s", t.Name)
	}
	basic, ok := obj.Type().Underlying().(*types.Basic)
	if !ok || basic.Info()&types.IsInteger == 0 {
		return x.errorf(d.spec.Pos(), "enum %s must have an integer underlying type, has %s",
			t.Name, types.ExprString(d.spec.Type))
	}
	t.UnderlyingKind = basicName(basic)

	docs := x.pkg.constDocs()
	own := x.pkg.fset.File(x.file.Pos())
	for _, c := range x.pkg.enumConstants(obj.Type()) {
		if x.pkg.fset.File(c.Pos()) != own {
			x.parser.warn(x.pos(d.spec.Pos()), "constant %s of enum %s is declared outside %s and ignored",
				c.Name(), t.Name, x.header.Path)
			continue
		}
		value, ok := constantValue(c.Val())
		if !ok {
			return x.errorf(c.Pos(), "constant %s of enum %s has no integer value", c.Name(), t.Name)
		}
		t.Constants = append(t.Constants, metadata.EnumConstant{
			Identifier:  c.Name(),
			Label:       enumLabel(t.Name, c.Name()),
			Value:       value,
			Description: docs[c.Name()],
		})
	}
	if len(t.Constants) == 0 {
		x.parser.warn(x.pos(d.spec.Pos()), "enum %s declares no constants", t.Name)
	}

	return x.store.AddType(t)
}

// basicName returns the canonical name of an integer kind, so byte and rune
// are reported as uint8 and int32
func basicName(b *types.Basic) string {
	return types.Typ[b.Kind()].Name()
}

func constantValue(v constant.Value) (int64, bool) {
	v = constant.ToInt(v)
	if v.Kind() != constant.Int {
		return 0, false
	}
	if n, exact := constant.Int64Val(v); exact {
		return n, true
	}
	if n, exact := constant.Uint64Val(v); exact {
		return int64(n), true
	}
	return 0, false
}

// enumLabel strips the enum type name from a constant identifier when what
// remains is itself an exported word: ColorDarkRed of Color becomes DarkRed.
func enumLabel(typeName, ident string) string {
	rest := strings.TrimPrefix(ident, typeName)
	if rest == ident || rest == "" {
		return ident
	}
	r, _ := utf8.DecodeRuneInString(rest)
	if !unicode.IsUpper(r) {
		return ident
	}
	return rest
}
