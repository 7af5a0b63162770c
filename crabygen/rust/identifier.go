package rust

// Strict and reserved keywords of the 2021 edition.
var reservedWords = map[string]bool{
	"as": true, "async": true, "await": true, "break": true, "const": true,
	"continue": true, "dyn": true, "else": true, "enum": true, "extern": true,
	"false": true, "fn": true, "for": true, "if": true, "impl": true,
	"in": true, "let": true, "loop": true, "match": true, "mod": true,
	"move": true, "mut": true, "pub": true, "ref": true, "return": true,
	"static": true, "struct": true, "trait": true, "true": true, "type": true,
	"unsafe": true, "use": true, "where": true, "while": true,
	"abstract": true, "become": true, "box": true, "do": true, "final": true,
	"macro": true, "override": true, "priv": true, "try": true, "typeof": true,
	"unsized": true, "virtual": true, "yield": true,
}

// Keywords that cannot be raw identifiers.
var nonRawWords = map[string]bool{
	"self":  true,
	"Self":  true,
	"super": true,
	"crate": true,
}

// ident escapes a keyword as a raw identifier (r#type). Keywords that have
// no raw form get a trailing underscore.
func ident(name string) string {
	switch {
	case nonRawWords[name]:
		return name + "_"
	case reservedWords[name]:
		return "r#" + name
	default:
		return name
	}
}
