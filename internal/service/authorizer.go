// Package service holds the business rules that sit between the HTTP
// handlers and the repositories.
package service

import (
	"mutualaid/internal/authz"
)

// authorizer adapts engine decisions to the AppErrors services return.
type authorizer struct {
	engine *authz.Engine
}

func newAuthorizer(engine *authz.Engine) authorizer {
	if engine == nil {
		engine = authz.NewEngine()
	}
	return authorizer{engine: engine}
}

// precheck rejects on identity and role alone, before any record is read.
func (a authorizer) precheck(caller authz.Caller, action authz.Action, kind authz.Kind) error {
	return a.engine.Precheck(caller, action, kind).Err()
}

func (a authorizer) authorize(caller authz.Caller, action authz.Action, res authz.Resource) error {
	return a.engine.Authorize(caller, action, res).Err()
}
