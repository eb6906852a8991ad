package css

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"vdomkit/scope"
)

// needsScoping checks for markers of references which have to be scoped.
func needsScoping(value string) bool {
	return strings.Contains(value, scope.URLScheme) || strings.Contains(value, "url(#")
}

// SanitizeStyleMap scopes URL references in inline style properties.
//
// When no property needs scoping style itself is returned. Otherwise new map
// is returned with empty and nil properties dropped, scoped values rewritten
// and all other values copied as is. Properties referencing resources of
// other blocks are dropped.
//
// Values which cannot be processed are kept unchanged, problems are
// accumulated into returned error. Returned map is always usable.
func (s *Sanitizer) SanitizeStyleMap(namespace string, style map[string]any) (map[string]any, error) {
	var (
		sanitized = make(map[string]any, len(style))
		updated   bool
		errs      error
	)

	for property, value := range style {
		if value == nil {
			continue
		}
		str, ok := value.(string)
		if !ok {
			sanitized[property] = value
			continue
		}
		if str == "" {
			continue
		}
		if !needsScoping(str) {
			sanitized[property] = str
			continue
		}

		updated = true
		res, keep, err := s.styleValue(namespace, property, str)
		if err != nil {
			s.log.Warn("Unable to process style value, keeping original",
				zap.String("block", namespace), zap.String("property", property), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("style property %q: %w", property, err))
			sanitized[property] = str
			continue
		}
		if !keep {
			s.log.Debug("Removing style property with invalid URL",
				zap.String("block", namespace), zap.String("property", property))
			continue
		}
		sanitized[property] = res
	}

	if !updated {
		return style, errs
	}
	return sanitized, errs
}

// styleValue processes single property value. False is returned when
// property must be dropped.
func (s *Sanitizer) styleValue(namespace, property, value string) (res string, keep bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, keep, err = "", false, processingError(fmt.Errorf("%v", r))
		}
	}()

	// bare reference, i.e. src or background given as plain URL
	if trimmed := strings.TrimSpace(value); scope.IsBlockURL(trimmed) && !strings.ContainsAny(trimmed, " \t\n,()") {
		scoped, ok := scope.URL(namespace, trimmed)
		return scoped, ok, nil
	}

	tokens, err := tokenize(value)
	if err != nil {
		return "", false, parseError(err)
	}

	_, fragment := s.fragmentProps[strings.ToLower(property)]
	w := &walker{s: s, namespace: namespace}
	tokens, ok := w.urls(tokens, fragment, false)
	if !ok {
		return "", false, nil
	}

	var sb strings.Builder
	writeRawTokens(&sb, tokens)
	return sb.String(), true, nil
}
