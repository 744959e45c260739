package constants

const Namespace = "mirror"

// ErrorFieldNamespace for all exported error field keys.
const ErrorFieldNamespace = Namespace

// TagKey is the struct tag key consumed by the member resolver.
const TagKey = "mirror"

// Directive tokens recognized inside a `mirror:"..."` tag.
const (
	DirectiveField       = "field"
	DirectiveStatic      = "static"
	DirectiveConstructor = "constructor"
	DirectiveSuper       = "super"
	DirectiveTarget      = "target"
	DirectiveName        = "name"
	DirectiveSkip        = "-"
)

// Accessor prefixes stripped from a func field name to derive the
// underlying field name for direct field access.
const (
	PrefixGet = "Get"
	PrefixSet = "Set"
	PrefixIs  = "Is"
)
