package errors

import (
	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/mirror/constants"
)

var namespace = errorc.Namespace(constants.Namespace)

// Configuration errors: misuses detectable before any member is resolved.
// Use errors.Is to match.
var (
	ErrNilInstance        = namespace.NewError("nil instance")
	ErrNotStruct          = namespace.NewError("mirror type must be a struct")
	ErrNoTargetType       = namespace.NewError("no target type: mirror must embed Of, OfInstance or API")
	ErrTargetTypeMismatch = namespace.NewError("instance is not assignable to target type")
	ErrInstanceWithAPI    = namespace.NewError("per-member target mode does not accept an instance")
	ErrNoInstance         = namespace.NewError("member requires an instance")
	ErrNotAddressable     = namespace.NewError("instance must be a pointer for direct field access")
)

// Resolution errors: a member could not be bound. These fail the whole
// mirror construction or upgrade call.
var (
	ErrCannotMirror      = namespace.NewError("cannot mirror member")
	ErrInvalidDirective  = namespace.NewError("invalid mirror directive")
	ErrMemberNotFound    = namespace.NewError("member not found")
	ErrAmbiguousMember   = namespace.NewError("ambiguous member")
	ErrSignatureMismatch = namespace.NewError("signature mismatch")
)

// Upgrade errors.
var (
	ErrNotConcrete       = namespace.NewError("destination type must be a struct")
	ErrNotSubtype        = namespace.NewError("destination type does not extend source type")
	ErrFieldTypeMismatch = namespace.NewError("field type mismatch")
	ErrCannotUpgrade     = namespace.NewError("cannot upgrade instance")
)

var newKey = errorc.KeyFactory(constants.ErrorFieldNamespace)

// Internal hierarchical segments used to build dotted keys.
const (
	keySegmentMember  = "member"
	keySegmentField   = "field"
	keySegmentUpgrade = "upgrade"
)

// Exported structured error field keys
var (
	ErrorFieldMemberName   = newKey("name", keySegmentMember)        // mirror.member.name
	ErrorFieldMemberKind   = newKey("kind", keySegmentMember)        // mirror.member.kind
	ErrorFieldDeclaredType = newKey("declared", keySegmentMember)    // mirror.member.declared
	ErrorFieldMemberType   = newKey("actual", keySegmentMember)      // mirror.member.actual
	ErrorFieldDirective    = newKey("directive", keySegmentMember)   // mirror.member.directive
)

var (
	ErrorFieldFieldName  = newKey("name", keySegmentField)        // mirror.field.name
	ErrorFieldSourceType = newKey("source_type", keySegmentField) // mirror.field.source_type
	ErrorFieldDestType   = newKey("dest_type", keySegmentField)   // mirror.field.dest_type
)

var (
	ErrorFieldSource = newKey("source", keySegmentUpgrade) // mirror.upgrade.source
	ErrorFieldDest   = newKey("dest", keySegmentUpgrade)   // mirror.upgrade.dest
)

var (
	ErrorFieldMirrorType = newKey("mirror_type")
	ErrorFieldTargetType = newKey("target_type")
	ErrorFieldCause      = newKey("cause")
)
