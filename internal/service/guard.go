package service

import (
	"context"

	"github.com/goodabcdef/instagram-project/internal/models"
)

// AdminChecker reports whether a user has admin rights.
type AdminChecker func(ctx context.Context, userID uint) (bool, error)

// CanModify allows the owner of a resource, or an admin, to change it.
func CanModify(ctx context.Context, actorID, ownerID uint, isAdmin AdminChecker) error {
	if actorID != 0 && actorID == ownerID {
		return nil
	}
	if isAdmin != nil {
		admin, err := isAdmin(ctx, actorID)
		if err != nil {
			return err
		}
		if admin {
			return nil
		}
	}
	return models.NewForbiddenError("You do not have permission to modify this resource")
}
