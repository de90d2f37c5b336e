// internal/app/policy/eventpolicy/eventpolicy.go
package eventpolicy

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ChasovDS/konkursant-grants/internal/app/system/authz"
)

// IsManager returns true if the given user sits on the event's manager
// roster according to the authoritative events collection.
func IsManager(ctx context.Context, db *mongo.Database, eventID, userID primitive.ObjectID) (bool, error) {
	n, err := db.Collection("events").CountDocuments(ctx, bson.M{
		"_id":      eventID,
		"managers": userID,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CanManage reports whether the current request user can manage the event:
// - Admin tier always can
// - Event managers can if they created it or sit on its manager roster
// Returns an error if the database check fails, allowing callers to
// distinguish between "not authorized" (false, nil) and "database
// error" (false, err).
func CanManage(ctx context.Context, db *mongo.Database, r *http.Request, eventID, creatorID primitive.ObjectID) (bool, error) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false, nil
	}
	if role.IsAdminTier() {
		return true, nil
	}
	if !role.IsEventTier() {
		return false, nil
	}
	if uid == creatorID {
		return true, nil
	}
	return IsManager(ctx, db, eventID, uid)
}
