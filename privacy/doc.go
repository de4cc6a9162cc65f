// Package privacy evaluates write policies on records before they reach the
// store.
//
// A Policy is an ordered list of rules. Each rule returns Allow, Deny or
// Skip; the first Allow or Deny ends the evaluation and a policy whose rules
// all skip allows the write. A Policy is a recordkit.Mixin, so a record type
// enables it by listing it in Mixin:
//
//	func (Order) Mixin() []recordkit.Mixin {
//	    return []recordkit.Mixin{
//	        privacy.Policy{
//	            privacy.DenyIfNoViewer(),
//	            privacy.HasRole("admin"),
//	            privacy.OnOperation(privacy.IsOwner("customer_id"), privacy.OpUpdate|privacy.OpDelete),
//	            privacy.AllowOperationRule(privacy.OpCreate),
//	            privacy.AlwaysDenyRule(),
//	        },
//	    }
//	}
//
// The viewer is carried by the context:
//
//	ctx = privacy.WithViewer(ctx, &privacy.SimpleViewer{UserID: "5", Roles: []string{"staff"}})
//
// A decision stored with DecisionContext overrides every policy, which is
// how trusted background jobs bypass them:
//
//	ctx = privacy.DecisionContext(ctx, privacy.Allow)
package privacy
