package middlewares

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"fixmyarea-be/apperrors"
	"fixmyarea-be/models"
)

// Operation names used in route registration.
const (
	OpComplaintsCreate      = "complaints.create"
	OpComplaintsMine        = "complaints.mine"
	OpComplaintsAssigned    = "complaints.assigned"
	OpComplaintsAnalytics   = "complaints.analytics"
	OpComplaintsByVillage   = "complaints.byVillage"
	OpComplaintsAssign      = "complaints.assign"
	OpComplaintsStatus      = "complaints.status"
	OpComplaintsUpvote      = "complaints.upvote"
	OpUsersMe               = "users.me"
	OpUsersProfile          = "users.profile"
	OpUsersWorkers          = "users.workers"
	OpUsersWorkersByVillage = "users.workersByVillage"
	OpUsersRemoveWorker     = "users.removeWorker"
	OpEventsSubscribe       = "events.subscribe"
)

// Policy maps an operation to the roles allowed to call it. An empty role
// list admits any authenticated caller.
type Policy map[string][]models.Role

var (
	citizenOnly = []models.Role{models.RoleCitizen}
	adminOnly   = []models.Role{models.RoleAdmin}
	workerOnly  = []models.Role{models.RoleWorker}
)

// DefaultPolicy is the access table for every protected route.
var DefaultPolicy = Policy{
	OpComplaintsCreate:      citizenOnly,
	OpComplaintsMine:        citizenOnly,
	OpComplaintsAssigned:    workerOnly,
	OpComplaintsAnalytics:   adminOnly,
	OpComplaintsByVillage:   adminOnly,
	OpComplaintsAssign:      adminOnly,
	OpComplaintsStatus:      workerOnly,
	OpComplaintsUpvote:      citizenOnly,
	OpUsersMe:               {},
	OpUsersProfile:          {},
	OpUsersWorkers:          adminOnly,
	OpUsersWorkersByVillage: adminOnly,
	OpUsersRemoveWorker:     adminOnly,
	OpEventsSubscribe:       {},
}

// Authorize decides whether identity may perform an operation restricted to allowed.
func Authorize(identity *models.Identity, allowed []models.Role) error {
	if identity == nil {
		return apperrors.Unauthenticated("User not authenticated")
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, role := range allowed {
		if identity.Role == role {
			return nil
		}
	}
	return apperrors.Forbidden("Access denied for role " + string(identity.Role))
}

// Gate builds the handler chain guarding each protected route.
type Gate struct {
	policy       Policy
	authenticate gin.HandlerFunc
}

func NewGate(policy Policy, tokens TokenVerifier) *Gate {
	return &Gate{policy: policy, authenticate: Authenticate(tokens)}
}

// Require returns authentication followed by the role check for op.
// Unknown operations panic so a typo fails at startup, not at request time.
func (g *Gate) Require(op string) gin.HandlersChain {
	allowed, ok := g.policy[op]
	if !ok {
		panic(fmt.Sprintf("middlewares: no policy for operation %q", op))
	}
	return gin.HandlersChain{g.authenticate, func(c *gin.Context) {
		if err := Authorize(IdentityFrom(c), allowed); err != nil {
			abort(c, apperrors.From(err))
			return
		}
		c.Next()
	}}
}
