package authz

// Ownership selects which identity check a policy applies to the resource.
type Ownership int

const (
	// OwnerAny performs no ownership check.
	OwnerAny Ownership = iota
	// OwnerOnly requires caller == Resource.OwnerID; admins get no override.
	OwnerOnly
	// OwnerOrAdmin requires caller == Resource.OwnerID or an admin caller.
	OwnerOrAdmin
	// PartiesOnly requires the caller to be listed in Resource.Parties.
	PartiesOnly
)

// Guard inspects a relation and returns a denial reason, or ReasonNone.
type Guard func(caller Caller, res Resource) Reason

// Policy is the rule set for one (kind, action) pair.
// The zero value requires an authenticated caller and nothing else.
type Policy struct {
	// Public actions need no credentials; an invalid token counts as anonymous.
	Public    bool
	AdminOnly bool
	Ownership Ownership
	Guard     Guard
}

// NotSelf denies a relation whose target is the caller. It applies to admins too.
func NotSelf(caller Caller, res Resource) Reason {
	if res.TargetID == caller.UserID {
		return ReasonCannotFollowSelf
	}
	return ReasonNone
}

var (
	public       = Policy{Public: true}
	authed       = Policy{}
	adminOnly    = Policy{AdminOnly: true}
	ownerOnly    = Policy{Ownership: OwnerOnly}
	ownerOrAdmin = Policy{Ownership: OwnerOrAdmin}
	partiesOnly  = Policy{Ownership: PartiesOnly}
)

// DefaultPolicies returns a fresh copy of the marketplace policy table.
func DefaultPolicies() map[Kind]map[Action]Policy {
	return map[Kind]map[Action]Policy{
		KindUser: {
			ActionRead: public,
			// Phase one of registration creates the account without a token.
			ActionCreate: public,
			ActionUpdate: ownerOnly,
			ActionDelete: ownerOnly,
		},
		KindUserRole: {
			ActionUpdate: adminOnly,
		},
		KindPost: {
			ActionRead:   public,
			ActionCreate: authed,
			ActionUpdate: ownerOrAdmin,
			ActionDelete: ownerOrAdmin,
		},
		KindCategory: {
			ActionRead:   public,
			ActionCreate: adminOnly,
			ActionUpdate: adminOnly,
			ActionDelete: adminOnly,
		},
		KindLocation: {
			ActionRead:   public,
			ActionCreate: adminOnly,
			ActionUpdate: adminOnly,
			ActionDelete: adminOnly,
		},
		KindCountry: {
			ActionRead:   public,
			ActionCreate: adminOnly,
			ActionUpdate: adminOnly,
			ActionDelete: adminOnly,
		},
		KindMessage: {
			ActionRead:   partiesOnly,
			ActionCreate: authed,
			ActionDelete: partiesOnly,
		},
		KindFollow: {
			ActionRead:   authed,
			ActionCreate: {Guard: NotSelf},
			ActionDelete: ownerOnly,
		},
		KindCollection: {
			ActionRead:   ownerOnly,
			ActionCreate: authed,
			ActionUpdate: ownerOnly,
			ActionDelete: ownerOnly,
			ActionRelate: ownerOnly,
		},
		KindImage: {
			ActionRead:   public,
			ActionCreate: ownerOrAdmin,
			ActionDelete: ownerOrAdmin,
		},
		KindMedia: {
			ActionRead:   public,
			ActionCreate: ownerOrAdmin,
			ActionDelete: ownerOrAdmin,
		},
		KindLike: {
			ActionRead:   public,
			ActionCreate: authed,
			ActionDelete: ownerOnly,
		},
		KindFavorite: {
			ActionRead:   ownerOnly,
			ActionCreate: authed,
			ActionDelete: ownerOnly,
		},
		KindComment: {
			ActionRead:   public,
			ActionCreate: authed,
			ActionUpdate: ownerOrAdmin,
			ActionDelete: ownerOrAdmin,
		},
	}
}
