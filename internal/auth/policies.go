package auth

import (
	"fmt"

	"github.com/blogicum/blogicum/internal/logger"
	"github.com/casbin/casbin/v2"
)

// Role names used in the route policies.
const (
	RoleAnonymous = "anonymous"
	RoleUser      = "user"
)

// DefaultPolicies are the route rules every installation starts with.
// Ownership of posts and comments is checked by the handlers, not here.
var DefaultPolicies = [][]string{
	{RoleAnonymous, "/", "GET"},
	{RoleAnonymous, "/posts/:id/", "GET"},
	{RoleAnonymous, "/profile/:username/", "GET"},
	{RoleAnonymous, "/category/:slug/", "GET"},
	{RoleAnonymous, "/about/", "GET"},
	{RoleAnonymous, "/rules/", "GET"},
	{RoleAnonymous, "/static/*", "GET"},
	{RoleAnonymous, "/auth/*", "*"},
	{RoleAnonymous, "/robots.txt", "GET"},
	{RoleAnonymous, "/sitemap.xml", "GET"},

	{RoleUser, "/posts/create/", "*"},
	{RoleUser, "/posts/:id/edit/", "*"},
	{RoleUser, "/posts/:id/delete/", "*"},
	{RoleUser, "/posts/:id/comment/", "POST"},
	{RoleUser, "/posts/:id/edit_comment/:cid/", "*"},
	{RoleUser, "/posts/:id/delete_comment/:cid/", "*"},
	{RoleUser, "/edit_profile/", "*"},
}

// SeedDefaultPolicies adds any missing default policy and makes the user
// role inherit the anonymous one. It is safe to run on every start.
func SeedDefaultPolicies(e casbin.IEnforcer, log logger.Logger) {
	log.Info("Seeding default authorization policies...")
	for _, p := range DefaultPolicies {
		if has, _ := e.HasPolicy(p); !has {
			if _, err := e.AddPolicy(p); err != nil {
				log.Error(err, fmt.Sprintf("Failed to add policy %v", p))
			}
		}
	}
	if has, _ := e.HasRoleForUser(RoleUser, RoleAnonymous); !has {
		if _, err := e.AddRoleForUser(RoleUser, RoleAnonymous); err != nil {
			log.Error(err, "Failed to add role 'user' -> 'anonymous'")
		}
	}
	log.Info("Policy seeding complete.")
}
