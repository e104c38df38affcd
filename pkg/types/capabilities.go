// pkg/types/capabilities.go
package types

import "strings"

// Capability constants for group authority.
const (
	CapabilityAll                = "group/*"
	CapabilityAdmin              = "group/admin"
	CapabilityAdminInvite        = "group/admin/invite"
	CapabilityAdminPromote       = "group/admin/promote"
	CapabilityAdminRemove        = "group/admin/remove"
	CapabilityAdminDeleteContent = "group/admin/delete-content"
	CapabilityMember             = "group/member"
	CapabilityMemberLeave        = "group/member/leave"
	CapabilityMemberRespond      = "group/member/respond"
)

// CapabilityAllows checks if a held capability grants the required capability.
func CapabilityAllows(held, required string) bool {
	// Wildcard grants everything
	if held == CapabilityAll {
		return true
	}

	if held == required {
		return true
	}

	// Hierarchical: group/admin allows group/admin/*
	return strings.HasPrefix(required, held+"/")
}

// AnyCapabilityAllows reports whether any held capability grants required.
func AnyCapabilityAllows(held []string, required string) bool {
	for _, h := range held {
		if CapabilityAllows(h, required) {
			return true
		}
	}
	return false
}
