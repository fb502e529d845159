// Package authz decides whether a caller may perform an action on a resource.
//
// The engine is pure: it performs no I/O. Handlers describe the target with a
// Resource (kind, owner, parties) after loading it and then ask the engine for
// a Decision.
package authz

import (
	"slices"

	"mutualaid/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Credential describes what the caller presented.
type Credential int

const (
	// CredentialNone means no token was presented.
	CredentialNone Credential = iota
	// CredentialValid means the token verified and the user exists.
	CredentialValid
	// CredentialInvalid means a token was presented but failed verification.
	CredentialInvalid
)

func (c Credential) String() string {
	switch c {
	case CredentialValid:
		return "valid"
	case CredentialInvalid:
		return "invalid"
	default:
		return "none"
	}
}

// Caller is the identity a request acts as.
type Caller struct {
	Credential Credential
	UserID     uint
	IsAdmin    bool
}

// Anonymous returns a caller without credentials.
func Anonymous() Caller {
	return Caller{Credential: CredentialNone}
}

// Authenticated returns a caller with a verified identity.
func Authenticated(userID uint, isAdmin bool) Caller {
	return Caller{Credential: CredentialValid, UserID: userID, IsAdmin: isAdmin}
}

// InvalidCredential returns a caller whose token did not verify.
func InvalidCredential() Caller {
	return Caller{Credential: CredentialInvalid}
}

// IsAuthenticated reports whether the caller carries a verified identity.
func (c Caller) IsAuthenticated() bool {
	return c.Credential == CredentialValid && c.UserID != 0
}

// Action is an operation on a resource.
type Action string

const (
	ActionRead   Action = "READ"
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	// ActionRelate adds or removes an association, e.g. a post in a collection.
	ActionRelate Action = "RELATE"
)

// Kind names a resource type.
type Kind string

const (
	KindUser       Kind = "user"
	KindUserRole   Kind = "user_role"
	KindPost       Kind = "post"
	KindCategory   Kind = "category"
	KindLocation   Kind = "location"
	KindCountry    Kind = "country"
	KindMessage    Kind = "message"
	KindFollow     Kind = "follow"
	KindCollection Kind = "collection"
	KindImage      Kind = "image"
	KindMedia      Kind = "media"
	KindLike       Kind = "like"
	KindComment    Kind = "comment"
	KindFavorite   Kind = "favorite"
)

// Resource describes the target of an action.
//
// OwnerID is the user who owns the record (the user itself for KindUser, the
// parent post's author for images and media, the follower for follows).
// Parties lists the users who may access a shared record such as a message.
// TargetID is the other side of a relation, e.g. the user being followed.
type Resource struct {
	Kind     Kind
	OwnerID  uint
	Parties  []uint
	TargetID uint
}

// Reason explains a denial.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonMissingToken     Reason = "missing token"
	ReasonInvalidToken     Reason = "invalid token"
	ReasonForbidden        Reason = "forbidden"
	ReasonCannotFollowSelf Reason = "cannot follow self"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow returns an allowing decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny returns a denying decision with the given reason.
func Deny(r Reason) Decision { return Decision{Reason: r} }

// Outcome is the metric label for the decision.
func (d Decision) Outcome() string {
	if d.Allowed {
		return "allow"
	}
	return "deny"
}

// Status maps the decision to an HTTP status code.
func (d Decision) Status() int {
	if d.Allowed {
		return fiber.StatusOK
	}
	switch d.Reason {
	case ReasonMissingToken, ReasonInvalidToken:
		return fiber.StatusUnauthorized
	case ReasonCannotFollowSelf:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusForbidden
	}
}

// Err converts a denial into the application error the API renders.
// It returns nil for allowing decisions.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	var appErr *models.AppError
	switch d.Reason {
	case ReasonMissingToken:
		appErr = models.NewUnauthorizedError("Authentication required")
	case ReasonInvalidToken:
		appErr = models.NewUnauthorizedError("Invalid or expired token")
	case ReasonCannotFollowSelf:
		appErr = models.NewValidationError("You cannot follow yourself")
	default:
		appErr = models.NewForbiddenError("You are not allowed to perform this action")
	}
	appErr.Reason = string(d.Reason)
	return appErr
}

// Observer is notified of every decision the engine reaches.
type Observer func(kind Kind, action Action, d Decision)

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers a decision observer, e.g. a metrics recorder.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observe = o
	}
}

// WithPolicy overrides the policy for one (kind, action) pair.
func WithPolicy(kind Kind, action Action, p Policy) Option {
	return func(e *Engine) {
		if e.policies[kind] == nil {
			e.policies[kind] = make(map[Action]Policy)
		}
		e.policies[kind][action] = p
	}
}

// Engine evaluates policies. It is safe for concurrent use once built.
type Engine struct {
	policies map[Kind]map[Action]Policy
	observe  Observer
}

// NewEngine returns an engine loaded with the default policy table.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{policies: DefaultPolicies()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PolicyFor returns the policy that governs (kind, action).
// Pairs without an explicit entry are public for READ and require
// authentication for anything else.
func (e *Engine) PolicyFor(kind Kind, action Action) Policy {
	if byAction, ok := e.policies[kind]; ok {
		if p, ok := byAction[action]; ok {
			return p
		}
	}
	if action == ActionRead {
		return Policy{Public: true}
	}
	return Policy{}
}

// Precheck applies the identity and role rules only. Handlers call it before
// loading a record so an anonymous caller cannot learn whether an id exists.
func (e *Engine) Precheck(caller Caller, action Action, kind Kind) Decision {
	d := e.precheck(caller, e.PolicyFor(kind, action))
	if !d.Allowed && e.observe != nil {
		e.observe(kind, action, d)
	}
	return d
}

// Authorize applies every rule in order: authentication, credential validity,
// admin requirement, ownership and finally relational guards.
func (e *Engine) Authorize(caller Caller, action Action, res Resource) Decision {
	d := e.authorize(caller, action, res)
	if e.observe != nil {
		e.observe(res.Kind, action, d)
	}
	return d
}

func (e *Engine) authorize(caller Caller, action Action, res Resource) Decision {
	p := e.PolicyFor(res.Kind, action)
	if d := e.precheck(caller, p); !d.Allowed {
		return d
	}

	switch p.Ownership {
	case OwnerOnly:
		if caller.UserID != res.OwnerID {
			return Deny(ReasonForbidden)
		}
	case OwnerOrAdmin:
		if caller.UserID != res.OwnerID && !caller.IsAdmin {
			return Deny(ReasonForbidden)
		}
	case PartiesOnly:
		if !slices.Contains(res.Parties, caller.UserID) {
			return Deny(ReasonForbidden)
		}
	}

	if p.Guard != nil {
		if r := p.Guard(caller, res); r != ReasonNone {
			return Deny(r)
		}
	}

	return Allow()
}

func (e *Engine) precheck(caller Caller, p Policy) Decision {
	if p.Public {
		return Allow()
	}
	switch caller.Credential {
	case CredentialNone:
		return Deny(ReasonMissingToken)
	case CredentialInvalid:
		return Deny(ReasonInvalidToken)
	}
	if caller.UserID == 0 {
		return Deny(ReasonInvalidToken)
	}
	if p.AdminOnly && !caller.IsAdmin {
		return Deny(ReasonForbidden)
	}
	return Allow()
}
