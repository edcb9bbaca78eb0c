package validator

import (
	"github.com/lilianammmatos/incremental-graphql/graphql/ast"
	"github.com/lilianammmatos/incremental-graphql/graphql/schema"
)

func validateDirectives(doc *ast.Document, s *schema.Schema, features schema.FeatureSet, typeInfo *TypeInfo) []*Error {
	var ret []*Error
	ast.Inspect(doc, func(node ast.Node) bool {
		var directives []*ast.Directive
		var location schema.DirectiveLocation

		switch node := node.(type) {
		case *ast.OperationDefinition:
			directives = node.Directives
			if op := node.OperationType; op == nil || op.Value == "query" {
				location = schema.DirectiveLocationQuery
			} else if op.Value == "mutation" {
				location = schema.DirectiveLocationMutation
			} else if op.Value == "subscription" {
				location = schema.DirectiveLocationSubscription
			}
		case *ast.FragmentDefinition:
			directives = node.Directives
			location = schema.DirectiveLocationFragmentDefinition
		case *ast.Field:
			directives = node.Directives
			location = schema.DirectiveLocationField
		case *ast.FragmentSpread:
			directives = node.Directives
			location = schema.DirectiveLocationFragmentSpread
		case *ast.InlineFragment:
			directives = node.Directives
			location = schema.DirectiveLocationInlineFragment
		case *ast.Directive:
			ret = append(ret, newErrorWithNodes([]ast.Node{node}, "unsupported directive location"))
		}

		if len(directives) == 0 {
			return true
		}

		directiveNames := map[string]struct{}{}
		for _, directive := range directives {
			name := directive.Name.Name

			// A directive whose required features aren't enabled for this request is
			// indistinguishable from one that was never defined at all.
			def := s.DirectiveDefinition(name)
			if def != nil && !def.RequiredFeatures.IsSubsetOf(features) {
				def = nil
			}

			if def == nil {
				ret = append(ret, newErrorWithNodes([]ast.Node{directive}, "Unknown directive \"@%v\".", name))
			} else {
				allowedLocation := false
				for _, allowed := range def.Locations {
					if allowed == location {
						allowedLocation = true
						break
					}
				}
				if !allowedLocation {
					ret = append(ret, newErrorWithNodes([]ast.Node{directive}, "Directive \"@%v\" is not allowed at this location.", name))
				}
			}

			if _, ok := directiveNames[name]; ok {
				ret = append(ret, newErrorWithNodes([]ast.Node{directive}, "The directive \"@%v\" can only be used once at this location.", name))
			} else {
				directiveNames[name] = struct{}{}
			}
		}
		return false
	})
	return ret
}
