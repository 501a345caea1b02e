package admin

import (
	"slices"
	"testing"
	"time"

	"github.com/rebeliceyang/lazyca/internal/models"
)

func TestGate_Certificate(t *testing.T) {
	validTo := time.Now().Add(24 * time.Hour)
	ra := Gate{Account: &models.Account{Login: "officer", Authorities: []string{models.RoleRADomain}}}
	owner := Gate{Account: &models.Account{Login: "alice", Authorities: []string{models.RoleUser}}}
	stranger := Gate{Account: &models.Account{Login: "bob", Authorities: []string{models.RoleUser}}}
	anonymous := Gate{}

	cert := models.CertificateView{ID: 1, RequestedBy: "alice", ValidTo: validTo, SelfSigned: true}

	if !ra.Trustable(cert) || owner.Trustable(cert) {
		t.Error("Expected only RA to mark trust")
	}
	if !ra.Revocable(cert) || !owner.Revocable(cert) || stranger.Revocable(cert) || anonymous.Revocable(cert) {
		t.Error("Unexpected revocable result")
	}

	revoked := cert
	revoked.Revoked = true
	if ra.Revocable(revoked) || ra.Trustable(revoked) {
		t.Error("Revoked certificate must not be revocable or trustable")
	}

	held := revoked
	held.RevocationReason = models.ReasonCertificateHold
	if !owner.RemovableFromCRL(held) || owner.RemovableFromCRL(revoked) {
		t.Error("Only certificates on hold may leave the CRL")
	}

	if kinds := owner.CertificateActions(cert); !slices.Equal(kinds, []Kind{SelfAdminister, WithdrawCertificate}) {
		t.Errorf("Unexpected owner actions %v", kinds)
	}
	if kinds := ra.CertificateActions(held); !slices.Equal(kinds, []Kind{UpdateCertificate, RemoveFromCRL, UpdateCRL}) {
		t.Errorf("Unexpected RA actions %v", kinds)
	}
	if kinds := stranger.CertificateActions(cert); len(kinds) != 0 {
		t.Errorf("Expected no actions for stranger, got %v", kinds)
	}
}

func TestGate_CSR(t *testing.T) {
	ra := Gate{Account: &models.Account{Login: "officer", Authorities: []string{models.RoleRA}}}
	owner := Gate{Account: &models.Account{Login: "alice"}}

	csr := models.CSR{ID: 3, Status: models.StatusPending, RequestedBy: "alice"}
	if kinds := ra.CSRActions(csr); !slices.Equal(kinds, []Kind{AcceptCSR, RejectCSR, UpdateCSR}) {
		t.Errorf("Unexpected RA actions %v", kinds)
	}
	if kinds := owner.CSRActions(csr); !slices.Equal(kinds, []Kind{WithdrawCSR}) {
		t.Errorf("Unexpected owner actions %v", kinds)
	}

	csr.Status = models.StatusIssued
	if kinds := ra.CSRActions(csr); kinds != nil {
		t.Errorf("Expected no actions on issued request, got %v", kinds)
	}
}
