package domain

// Permissions is the role capability table. Loaded once at startup and
// passed by reference to the services that consult it; nothing mutates it
// after construction.
type Permissions struct {
	// OrgManage: create/update/delete units, repair paths, recount
	OrgManage map[Role]bool

	// TransferApprove: act on out/in approval stages
	TransferApprove map[Role]bool

	// MemberDirectory: search and resolve members
	MemberDirectory map[Role]bool

	// ApplyOnBehalf: file a transfer for another member
	ApplyOnBehalf map[Role]bool
}

// DefaultPermissions returns the standard role capability table
func DefaultPermissions() *Permissions {
	return &Permissions{
		OrgManage: map[Role]bool{
			RoleAdmin: true,
		},
		TransferApprove: map[Role]bool{
			RoleOfficer: true,
			RoleAdmin:   true,
		},
		MemberDirectory: map[Role]bool{
			RoleOfficer: true,
			RoleAdmin:   true,
		},
		ApplyOnBehalf: map[Role]bool{
			RoleOfficer: true,
			RoleAdmin:   true,
		},
	}
}

// CanManageOrg reports whether the role may mutate the hierarchy
func (p *Permissions) CanManageOrg(role string) bool {
	return p.OrgManage[Role(role)]
}

// CanApproveTransfers reports whether the role may sit on approval stages
func (p *Permissions) CanApproveTransfers(role string) bool {
	return p.TransferApprove[Role(role)]
}

// CanBrowseMembers reports whether the role may use the member directory
func (p *Permissions) CanBrowseMembers(role string) bool {
	return p.MemberDirectory[Role(role)]
}

// CanApplyOnBehalf reports whether the role may file transfers for others
func (p *Permissions) CanApplyOnBehalf(role string) bool {
	return p.ApplyOnBehalf[Role(role)]
}
