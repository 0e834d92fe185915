package model

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

var localsSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{{Type: "locals"}},
}

// localsEvalContext evaluates every `locals` block in the file body and
// returns an EvalContext exposing the values as local.<name>. Locals must be
// literal values; they cannot reference other locals or specs.
func localsEvalContext(body hcl.Body) (*hcl.EvalContext, error) {
	content, _, diags := body.PartialContent(localsSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	values := make(map[string]cty.Value)
	for _, block := range content.Blocks {
		attrs, diags := block.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, diags
		}
		for name, attr := range attrs {
			if _, exists := values[name]; exists {
				return nil, fmt.Errorf("duplicate local %q", name)
			}
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("local %q must be a literal value: %w", name, diags)
			}
			values[name] = val
		}
	}

	evalCtx := &hcl.EvalContext{Variables: map[string]cty.Value{}}
	if len(values) > 0 {
		evalCtx.Variables["local"] = cty.ObjectVal(values)
	}
	return evalCtx, nil
}
