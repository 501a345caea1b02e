package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rebeliceyang/lazyca/internal/models"
)

// Notification names a notification trigger
type Notification string

const (
	NotifyUserCertificateIssued   Notification = "sendUserCertificateIssued"
	NotifyUserCertificateRejected Notification = "sendUserCertificateRejected"
	NotifyUserCertificateRevoked  Notification = "sendUserCertificateRevoked"
	NotifyRAOfficerOnRequest      Notification = "sendRAOfficerOnRequest"
	NotifyExpiryPendingSummary    Notification = "sendExpiryPendingSummary"
)

// Notifications lists all triggers in menu order
var Notifications = []Notification{
	NotifyUserCertificateIssued,
	NotifyUserCertificateRejected,
	NotifyUserCertificateRevoked,
	NotifyRAOfficerOnRequest,
	NotifyExpiryPendingSummary,
}

// ParseNotification validates a notification name
func ParseNotification(name string) (Notification, error) {
	for _, n := range Notifications {
		if string(n) == name {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown notification %q", name)
}

// NeedsID reports whether the trigger targets a single item
func (n Notification) NeedsID() bool {
	return n != NotifyExpiryPendingSummary
}

// IDKind names the identifier the trigger takes, "" when none
func (n Notification) IDKind() string {
	switch n {
	case NotifyUserCertificateIssued, NotifyUserCertificateRevoked:
		return "certificate"
	case NotifyUserCertificateRejected, NotifyRAOfficerOnRequest:
		return "csr"
	}
	return ""
}

// Notify fires a notification trigger. A problem detail is returned when the
// backend reports one, either with a success status or as an error body.
func (c *Client) Notify(ctx context.Context, n Notification, id string) (models.ProblemDetail, error) {
	endpoint := "api/notification/" + string(n)
	if n.NeedsID() {
		if id == "" {
			return models.ProblemDetail{}, ErrMissingID
		}
		endpoint += "/" + url.PathEscape(id)
	}

	resp, err := c.processRequest(ctx, http.MethodPost, endpoint, nil, nil)
	if err != nil {
		if problem, ok := AsProblem(err); ok {
			return problem, err
		}
		return models.ProblemDetail{}, err
	}

	var problem models.ProblemDetail
	if len(resp.Body) > 0 && json.Unmarshal(resp.Body, &problem) == nil && !problem.IsEmpty() {
		return problem, nil
	}
	return models.ProblemDetail{}, nil
}
