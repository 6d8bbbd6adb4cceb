package activity

import (
	"errors"
	"strings"

	"github.com/goliatone/go-auth"
	"github.com/goliatone/go-records/pkg/authctx"
	"github.com/goliatone/go-records/pkg/types"
)

// ScopeConfig controls how ScopeFilters applies role and channel rules.
type ScopeConfig struct {
	ChannelAllowlist []string

	// SuperadminScope lets superadmins query tenants other than their own.
	SuperadminScope bool

	AdminRoleAliases      []string
	SuperadminRoleAliases []string
}

// ScopeOption mutates the scope configuration.
type ScopeOption func(*ScopeConfig)

// WithChannelAllowlist restricts results to the provided channels.
func WithChannelAllowlist(channels ...string) ScopeOption {
	return func(cfg *ScopeConfig) {
		cfg.ChannelAllowlist = normalizeIdentifiers(channels)
	}
}

// WithSuperadminScope allows superadmins to widen scope beyond actor context.
func WithSuperadminScope(enabled bool) ScopeOption {
	return func(cfg *ScopeConfig) {
		cfg.SuperadminScope = enabled
	}
}

// WithRoleAliases overrides the admin/superadmin role alias lists.
func WithRoleAliases(adminAliases, superadminAliases []string) ScopeOption {
	return func(cfg *ScopeConfig) {
		cfg.AdminRoleAliases = normalizeIdentifiers(adminAliases)
		cfg.SuperadminRoleAliases = normalizeIdentifiers(superadminAliases)
	}
}

var (
	defaultSuperadminRoleAliases = []string{types.ActorRoleSystemAdmin, types.ActorRoleSuperadmin}
	defaultAdminRoleAliases      = []string{types.ActorRoleTenantAdmin, types.ActorRoleAdmin, types.ActorRoleOrgAdmin}
)

// ScopeFilters narrows req to what actor may read. Tenants are pinned to the
// actor tenant and non admins only see their own activities.
func ScopeFilters(actor *auth.ActorContext, req types.ActivityFilters, opts ...ScopeOption) (types.ActivityFilters, error) {
	cfg := ScopeConfig{
		AdminRoleAliases:      normalizeIdentifiers(defaultAdminRoleAliases),
		SuperadminRoleAliases: normalizeIdentifiers(defaultSuperadminRoleAliases),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	user, err := authctx.UserRefFromActorContext(actor)
	if err != nil {
		return types.ActivityFilters{}, err
	}
	isSuperadmin := user.HasAnyRole(cfg.SuperadminRoleAliases...)
	isAdmin := isSuperadmin || user.HasAnyRole(cfg.AdminRoleAliases...)

	scoped := req
	if !isSuperadmin || !cfg.SuperadminScope {
		scoped.TenantID = authctx.TenantRefFromActorContext(actor).ID
	}
	if !isAdmin {
		scoped.UserID = user.ID
	}
	return applyChannelAllowlist(scoped, cfg.ChannelAllowlist)
}

func applyChannelAllowlist(f types.ActivityFilters, allow []string) (types.ActivityFilters, error) {
	channel := normalizeIdentifier(f.Channel)
	channels := normalizeIdentifiers(f.Channels)
	f.Channel = channel
	f.Channels = channels
	if len(allow) == 0 {
		return f, nil
	}

	switch {
	case channel != "":
		if !containsString(allow, channel) {
			return types.ActivityFilters{}, errors.New("activity: channel allowlist excludes requested channel")
		}
	case len(channels) > 0:
		f.Channels = intersectStrings(channels, allow)
		if len(f.Channels) == 0 {
			return types.ActivityFilters{}, errors.New("activity: channel allowlist excludes requested channels")
		}
	default:
		f.Channels = append([]string(nil), allow...)
	}
	return f, nil
}

func normalizeIdentifiers(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		normalized := normalizeIdentifier(value)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func normalizeIdentifier(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func containsString(values []string, target string) bool {
	if target == "" {
		return false
	}
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

func intersectStrings(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, value := range b {
		set[value] = struct{}{}
	}
	out := make([]string, 0, len(a))
	for _, value := range a {
		if _, ok := set[value]; ok {
			out = append(out, value)
		}
	}
	return out
}
