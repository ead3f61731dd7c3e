package auth

import "github.com/Rani367/Hativon-sub000/internal/model"

// Authorizer is the ownership predicate consulted before any mutation.
type Authorizer interface {
	CanMutate(user model.UserID, draft *model.Draft) bool
}

// OwnerOrAdmin lets a draft's owner, or any newsletter admin, mutate it.
type OwnerOrAdmin struct {
	Admins map[model.UserID]bool
}

func NewOwnerOrAdmin(admins ...model.UserID) OwnerOrAdmin {
	set := make(map[model.UserID]bool, len(admins))
	for _, a := range admins {
		if a != "" {
			set[a] = true
		}
	}
	return OwnerOrAdmin{Admins: set}
}

func (o OwnerOrAdmin) CanMutate(user model.UserID, draft *model.Draft) bool {
	if user == "" || draft == nil {
		return false
	}
	return draft.Owner == user || o.Admins[user]
}
