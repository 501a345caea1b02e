package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rebeliceyang/lazyca/internal/alert"
	"github.com/rebeliceyang/lazyca/internal/api"
	"github.com/rebeliceyang/lazyca/internal/i18n"
	"github.com/rebeliceyang/lazyca/internal/models"
	"github.com/rs/zerolog"
)

// Poster sends administration payloads
type Poster interface {
	PostAdministration(ctx context.Context, endpoint string, payload any) (int, string, error)
}

// Navigator moves between views after an action completed
type Navigator interface {
	ShowCertificate(id string)
	Back()
}

// BusyIndicator shows that a request is in flight
type BusyIndicator interface {
	SetBusy(busy bool)
}

// Recorder keeps a local trail of dispatched actions
type Recorder interface {
	RecordAction(ctx context.Context, entry Entry) error
}

// Entry describes a dispatched action
type Entry struct {
	Kind     string
	Endpoint string
	TargetID string
	Status   int
	ResultID string
	Err      error
}

// Kind names an administration action
type Kind string

const (
	AcceptCSR           Kind = "accept"
	RejectCSR           Kind = "reject"
	UpdateCSR           Kind = "update"
	WithdrawCSR         Kind = "withdraw-request"
	UpdateCertificate   Kind = "update-certificate"
	UpdateCRL           Kind = "update-crl"
	RevokeCertificate   Kind = "revoke"
	RemoveFromCRL       Kind = "remove-from-crl"
	SelfAdminister      Kind = "self-administer"
	WithdrawCertificate Kind = "withdraw-certificate"
)

// Action is one administration request
type Action struct {
	Kind Kind

	CSRID         int64
	CertificateID int64

	RejectionReason  string
	RevocationReason string
	Comment          string
	// Trusted is the certificate trust flag; nil is sent as false
	Trusted      *bool
	ArAttributes []models.NamedValue
}

// ErrUnknownAction is returned for an action kind without endpoint
var ErrUnknownAction = errors.New("unknown administration action")

// Request resolves the endpoint and payload of an action
func (a Action) Request() (string, any, error) {
	switch a.Kind {
	case AcceptCSR, RejectCSR, UpdateCSR, WithdrawCSR:
		if a.CSRID == 0 {
			return "", nil, api.ErrMissingID
		}
		data := models.CSRAdministrationData{
			CSRID:           a.CSRID,
			RejectionReason: a.RejectionReason,
			Comment:         a.Comment,
			ArAttributes:    a.ArAttributes,
		}
		endpoint := api.EndpointAdministerRequest
		switch a.Kind {
		case AcceptCSR:
			data.AdministrationType = models.AdminAccept
		case RejectCSR:
			data.AdministrationType = models.AdminReject
		case UpdateCSR:
			data.AdministrationType = models.AdminUpdate
		case WithdrawCSR:
			data.AdministrationType = models.AdminReject
			endpoint = api.EndpointWithdrawOwnRequest
		}
		return endpoint, data, nil
	}

	if a.CertificateID == 0 {
		return "", nil, api.ErrMissingID
	}
	data := models.CertificateAdministrationData{
		CertificateID:    a.CertificateID,
		RevocationReason: a.RevocationReason,
		Comment:          a.Comment,
		Trusted:          a.Trusted != nil && *a.Trusted,
		ArAttributes:     a.ArAttributes,
	}
	switch a.Kind {
	case UpdateCertificate:
		data.AdministrationType = models.AdminUpdate
		return api.EndpointAdministerCertificate, data, nil
	case UpdateCRL:
		data.AdministrationType = models.AdminUpdateCRL
		return api.EndpointAdministerCertificate, data, nil
	case RevokeCertificate:
		data.AdministrationType = models.AdminRevoke
		return api.EndpointAdministerCertificate, data, nil
	case RemoveFromCRL:
		data.AdministrationType = models.AdminRevoke
		data.RevocationReason = models.ReasonRemoveFromCRL
		return api.EndpointAdministerCertificate, data, nil
	case SelfAdminister:
		data.AdministrationType = models.AdminUpdate
		return api.EndpointSelfAdministerCertificate, data, nil
	case WithdrawCertificate:
		data.AdministrationType = models.AdminRevoke
		return api.EndpointWithdrawOwnCertificate, data, nil
	}
	return "", nil, fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
}

func (a Action) targetID() string {
	if a.CSRID != 0 {
		return strconv.FormatInt(a.CSRID, 10)
	}
	return strconv.FormatInt(a.CertificateID, 10)
}

// Outcome reports how a dispatch ended
type Outcome struct {
	Status int
	// NewID is set when the backend created a resource and the view moved to it
	NewID string
	Err   error
}

// Dispatcher posts administration actions and navigates on the result
type Dispatcher struct {
	poster   Poster
	nav      Navigator
	busy     BusyIndicator
	alerts   alert.Sink
	printer  *i18n.Printer
	recorder Recorder
	logger   zerolog.Logger
}

// NewDispatcher creates a dispatcher. recorder may be nil.
func NewDispatcher(poster Poster, nav Navigator, busy BusyIndicator, alerts alert.Sink, printer *i18n.Printer, recorder Recorder, logger zerolog.Logger) *Dispatcher {
	if printer == nil {
		printer = i18n.New("en")
	}
	return &Dispatcher{
		poster:   poster,
		nav:      nav,
		busy:     busy,
		alerts:   alerts,
		printer:  printer,
		recorder: recorder,
		logger:   logger.With().Str("component", "admin").Logger(),
	}
}

// Dispatch posts the action. A 201 moves to the certificate named by the
// response body; any other status moves back. Failures move back and raise
// an alert. The busy indicator is cleared in every case.
func (d *Dispatcher) Dispatch(ctx context.Context, action Action) Outcome {
	d.busy.SetBusy(true)
	defer d.busy.SetBusy(false)

	endpoint, payload, err := action.Request()
	if err != nil {
		return d.fail(ctx, action, endpoint, err)
	}

	status, body, err := d.poster.PostAdministration(ctx, endpoint, payload)
	if err != nil {
		return d.fail(ctx, action, endpoint, err)
	}

	d.logger.Info().Str("action", string(action.Kind)).Str("id", action.targetID()).Int("status", status).Msg("administration action sent")
	d.record(ctx, Entry{Kind: string(action.Kind), Endpoint: endpoint, TargetID: action.targetID(), Status: status, ResultID: body})

	if status == http.StatusCreated {
		d.nav.ShowCertificate(body)
		return Outcome{Status: status, NewID: body}
	}
	d.nav.Back()
	return Outcome{Status: status}
}

func (d *Dispatcher) fail(ctx context.Context, action Action, endpoint string, err error) Outcome {
	d.logger.Warn().Err(err).Str("action", string(action.Kind)).Msg("administration action failed")
	d.record(ctx, Entry{Kind: string(action.Kind), Endpoint: endpoint, TargetID: action.targetID(), Err: err})

	d.nav.Back()
	if api.IsUnauthorized(err) {
		d.alerts.ShowAlert(d.printer.Sprintf(i18n.ActionNotAllowed), alert.Warn)
	} else {
		d.alerts.ShowAlert(d.printer.Sprintf(i18n.ProblemProcessing, err), alert.Info)
	}
	return Outcome{Err: err}
}

func (d *Dispatcher) record(ctx context.Context, e Entry) {
	if d.recorder == nil {
		return
	}
	if err := d.recorder.RecordAction(ctx, e); err != nil {
		d.logger.Debug().Err(err).Msg("failed to record action")
	}
}
