package admin

import "github.com/rebeliceyang/lazyca/internal/models"

// Gate decides which actions are offered to an account. The backend remains
// the authority; the gate only hides actions that would be refused.
type Gate struct {
	Account *models.Account
}

// IsRAOfficer reports a registration authority role
func (g Gate) IsRAOfficer() bool {
	return g.Account.HasRole(models.RoleRA) || g.Account.HasRole(models.RoleRADomain)
}

// IsAdmin reports the admin role
func (g Gate) IsAdmin() bool {
	return g.Account.HasRole(models.RoleAdmin)
}

func (g Gate) login() string {
	if g.Account == nil {
		return ""
	}
	return g.Account.Login
}

func (g Gate) owns(requestedBy string) bool {
	return requestedBy != "" && g.login() == requestedBy
}

// Trustable reports whether the trust flag of a certificate may be changed
func (g Gate) Trustable(c models.CertificateView) bool {
	return (g.IsRAOfficer() || g.IsAdmin()) && !c.Revoked && c.SelfSigned
}

// Editable reports whether comment and attributes may be updated
func (g Gate) Editable(c models.CertificateView) bool {
	return g.IsRAOfficer() || g.owns(c.RequestedBy)
}

// Revocable reports whether the certificate may be revoked
func (g Gate) Revocable(c models.CertificateView) bool {
	return !c.Revoked && !c.ValidTo.IsZero() && (g.IsRAOfficer() || g.owns(c.RequestedBy))
}

// RemovableFromCRL reports whether a certificate on hold may leave the CRL
func (g Gate) RemovableFromCRL(c models.CertificateView) bool {
	return c.RevocationReason == models.ReasonCertificateHold && !c.ValidTo.IsZero() &&
		(g.IsRAOfficer() || g.owns(c.RequestedBy))
}

// CertificateActions lists the actions offered on a certificate
func (g Gate) CertificateActions(c models.CertificateView) []Kind {
	var kinds []Kind
	if g.Editable(c) {
		if g.IsRAOfficer() {
			kinds = append(kinds, UpdateCertificate)
		} else {
			kinds = append(kinds, SelfAdminister)
		}
	}
	if g.Revocable(c) {
		if g.IsRAOfficer() {
			kinds = append(kinds, RevokeCertificate)
		} else {
			kinds = append(kinds, WithdrawCertificate)
		}
	}
	if g.RemovableFromCRL(c) {
		kinds = append(kinds, RemoveFromCRL)
	}
	if g.IsRAOfficer() || g.IsAdmin() {
		kinds = append(kinds, UpdateCRL)
	}
	return kinds
}

// CSRActions lists the actions offered on a request. Only pending requests
// can be administered.
func (g Gate) CSRActions(c models.CSR) []Kind {
	if c.Status != models.StatusPending {
		return nil
	}
	var kinds []Kind
	if g.IsRAOfficer() {
		kinds = append(kinds, AcceptCSR, RejectCSR, UpdateCSR)
	}
	if g.owns(c.RequestedBy) {
		kinds = append(kinds, WithdrawCSR)
	}
	return kinds
}
