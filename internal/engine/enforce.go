package engine

import "fmt"

// Enforcement wrapper for TokenSource to apply duplicate attribute handling
// and max depth checks in a streaming fashion.

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	// MaxDepth bounds element nesting; 0 disables the check.
	MaxDepth int
	// RejectDuplicateAttrs fails on a repeated attribute name within one element.
	RejectDuplicateAttrs bool
}

// EnforceError is returned when a token violates an enforcement rule.
type EnforceError struct {
	Code    string
	Message string
	Token   Token
}

func (e *EnforceError) Error() string { return e.Message }

// WrapWithEnforcement returns a TokenSource that enforces the maximum
// nesting depth and the duplicate attribute policy.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) TokenSource {
	if opt.MaxDepth == 0 && !opt.RejectDuplicateAttrs {
		return inner
	}
	return &enforcingTokenSource{inner: inner, opt: opt}
}

type enforcingTokenSource struct {
	inner TokenSource
	opt   EnforceOptions
	depth int
}

func (e *enforcingTokenSource) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}
	switch tok.Kind {
	case KindStartElement:
		e.depth++
		if e.opt.MaxDepth > 0 && e.depth > e.opt.MaxDepth {
			return Token{}, &EnforceError{Code: "max_depth", Message: fmt.Sprintf("max depth %d exceeded at <%s>", e.opt.MaxDepth, tok.Name.Local), Token: tok}
		}
		if e.opt.RejectDuplicateAttrs && len(tok.Attrs) > 1 {
			seen := make(map[Name]struct{}, len(tok.Attrs))
			for _, a := range tok.Attrs {
				if _, ok := seen[a.Name]; ok {
					return Token{}, &EnforceError{Code: "duplicate_attribute", Message: fmt.Sprintf("attribute '%s' duplicated on <%s>", a.Name.Local, tok.Name.Local), Token: tok}
				}
				seen[a.Name] = struct{}{}
			}
		}
	case KindEndElement:
		if e.depth > 0 {
			e.depth--
		}
	}
	return tok, nil
}
