package mirror

import (
	"strings"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/mirror/constants"
	"github.com/ygrebnov/mirror/errors"
)

// directive is the parsed form of a `mirror:"..."` tag. The zero value is a
// plain instance-method binding.
type directive struct {
	skip        bool
	field       bool
	static      bool
	constructor bool
	superField  string // super=<embedded field of the target>
	targetName  string // target=<registered type name>, API mode only
	memberName  string // name=<member>, overrides the func field name
}

// parseDirective tokenizes a raw tag string (e.g. "field,static" or
// "super=Base"). Tokens are comma-separated, either bare or key=value;
// whitespace around tokens is trimmed, empty tokens are skipped. An unknown
// token or a duplicated binding kind fails parsing.
func parseDirective(tag string) (directive, error) {
	var d directive
	if tag == "" {
		return d, nil
	}
	if tag == constants.DirectiveSkip {
		d.skip = true
		return d, nil
	}

	kinds := 0
	for _, token := range strings.Split(tag, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		key, value, hasValue := strings.Cut(token, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case constants.DirectiveField:
			d.field = true
			kinds++
		case constants.DirectiveStatic:
			d.static = true
		case constants.DirectiveConstructor:
			d.constructor = true
			kinds++
		case constants.DirectiveSuper:
			if !hasValue || value == "" {
				return d, errorc.With(
					errors.ErrInvalidDirective,
					errorc.String(errors.ErrorFieldDirective, token),
				)
			}
			d.superField = value
			kinds++
		case constants.DirectiveTarget:
			if !hasValue || value == "" {
				return d, errorc.With(
					errors.ErrInvalidDirective,
					errorc.String(errors.ErrorFieldDirective, token),
				)
			}
			d.targetName = value
		case constants.DirectiveName:
			if !hasValue || value == "" {
				return d, errorc.With(
					errors.ErrInvalidDirective,
					errorc.String(errors.ErrorFieldDirective, token),
				)
			}
			d.memberName = value
		default:
			return d, errorc.With(
				errors.ErrInvalidDirective,
				errorc.String(errors.ErrorFieldDirective, token),
			)
		}
	}

	// field, constructor and super are mutually exclusive binding kinds;
	// static combines with field (static field) or stands alone.
	if kinds > 1 || (d.constructor && d.static) || (d.superField != "" && d.static) {
		return d, errorc.With(
			errors.ErrInvalidDirective,
			errorc.String(errors.ErrorFieldDirective, tag),
		)
	}

	return d, nil
}
