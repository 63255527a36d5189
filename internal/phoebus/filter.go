package phoebus

import (
	"regexp"

	"github.com/oshokin/alh2phoebus/internal/domain/alarm"
)

// placeholderPattern matches a standalone single-letter placeholder of a calculation.
var placeholderPattern = regexp.MustCompile(`\b[A-Z]\b`)

// FilterExpression renders a force PV as a Phoebus filter expression: the PV
// name, or the calculation with its placeholders replaced, followed by
// " != <value>" when a force value is set. It returns "" when there is nothing to filter on.
func FilterExpression(forcePV *alarm.ForcePV) string {
	if forcePV == nil {
		return ""
	}

	text := forcePV.Name
	if forcePV.IsCalc {
		text = placeholderPattern.ReplaceAllStringFunc(forcePV.Expression, func(letter string) string {
			if expression, ok := forcePV.Arguments[letter]; ok {
				return expression
			}

			return letter
		})
	}

	if text == "" {
		return ""
	}

	if forcePV.Value != "" {
		text += " != " + forcePV.Value
	}

	return text
}
