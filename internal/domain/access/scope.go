package access

import "github.com/hyeunung/hanslwebapp-sub000/internal/domain/view"

// broadRoles see every requester's orders on the purchase tab.
var broadRoles = []Role{RolePurchaseManager, RoleLeadBuyer, RoleRawMaterialManager, RoleConsumableManager}

// approverRoles see every requester's orders on the pending tab.
var approverRoles = []Role{RoleMiddleManager, RoleFinalApprover}

// DefaultEmployee returns the employee filter a viewer starts with on a
// tab: view.EmployeeAll or the viewer's own name. The caller may override
// it.
func (a Actor) DefaultEmployee(tab view.Tab) string {
	if a.Roles.IsAdminTier() || tab == view.TabDone {
		return view.EmployeeAll
	}

	switch tab {
	case view.TabPending:
		if a.Roles.HasAny(approverRoles...) {
			return view.EmployeeAll
		}
	case view.TabPurchase:
		if a.Roles.HasAny(broadRoles...) {
			return view.EmployeeAll
		}
	}
	return a.Name
}

// PendingPurchaseRequestOnly reports whether the viewer's pending tab is
// limited to purchase-request orders. Only a viewer whose sole role is
// consumable_manager is limited.
func (a Actor) PendingPurchaseRequestOnly() bool {
	return a.Roles.Only(RoleConsumableManager)
}
