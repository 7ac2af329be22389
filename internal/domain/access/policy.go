package access

import (
	"context"

	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/workflow"
)

// Capability names one guarded action.
type Capability string

const (
	CapVerify          Capability = "verify"
	CapApprove         Capability = "approve"
	CapReject          Capability = "reject"
	CapReset           Capability = "reset"
	CapDeleteOrder     Capability = "delete_order"
	CapEditOrder       Capability = "edit_order"
	CapMarkPayment     Capability = "mark_payment"
	CapClearCompletion Capability = "clear_completion"
	CapManageVendors   Capability = "manage_vendors"
	CapMarkPODownload  Capability = "mark_po_download"
)

// capabilities maps each capability to the roles that grant it besides the
// admin tier, which is granted everything.
var capabilities = map[Capability][]Role{
	CapVerify:          {RoleMiddleManager},
	CapApprove:         {RoleFinalApprover},
	CapReject:          {RoleFinalApprover},
	CapReset:           nil,
	CapDeleteOrder:     {RoleLeadBuyer},
	CapEditOrder:       {RoleLeadBuyer, RolePurchaseManager},
	CapMarkPayment:     {RoleLeadBuyer, RolePurchaseManager},
	CapClearCompletion: nil,
	CapManageVendors:   {RoleLeadBuyer, RolePurchaseManager, RoleRawMaterialManager, RoleConsumableManager},
	CapMarkPODownload:  {RoleLeadBuyer, RolePurchaseManager},
}

// Can reports whether roles grant c.
func (s RoleSet) Can(c Capability) bool {
	if s.IsAdminTier() {
		_, known := capabilities[c]
		return known
	}
	return s.HasAny(capabilities[c]...)
}

// Can reports whether the actor holds c.
func (a Actor) Can(c Capability) bool {
	return a.Roles.Can(c)
}

// CapabilityFor maps an approval trigger to the capability it needs.
func CapabilityFor(t workflow.Trigger) (Capability, bool) {
	switch t {
	case workflow.TriggerVerify:
		return CapVerify, true
	case workflow.TriggerApprove:
		return CapApprove, true
	case workflow.TriggerReject:
		return CapReject, true
	case workflow.TriggerReset:
		return CapReset, true
	}
	return "", false
}

// CanFire reports whether the actor may fire an approval trigger.
func (a Actor) CanFire(t workflow.Trigger) bool {
	c, ok := CapabilityFor(t)
	return ok && a.Can(c)
}

// CanMarkReceived reports whether the actor may mark the requester's order
// as received: the requester themself, a lead buyer or the admin tier.
func (a Actor) CanMarkReceived(requesterName string) bool {
	if a.Roles.IsAdminTier() || a.Roles.Has(RoleLeadBuyer) {
		return true
	}
	return a.Name != "" && a.Name == requesterName
}

// TriggerGuard adapts the policy into a workflow guard reading the actor
// from ctx. A context without an actor fails every guard.
func TriggerGuard() workflow.TriggerGuard {
	return func(ctx context.Context, t workflow.Trigger) bool {
		a, ok := ActorFromContext(ctx)
		return ok && a.CanFire(t)
	}
}
