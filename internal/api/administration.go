package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Administration endpoints
const (
	EndpointAdministerRequest         = "api/administerRequest"
	EndpointWithdrawOwnRequest        = "api/withdrawOwnRequest"
	EndpointAdministerCertificate     = "api/administerCertificate"
	EndpointSelfAdministerCertificate = "api/selfAdministerCertificate"
	EndpointWithdrawOwnCertificate    = "api/withdrawOwnCertificate"
)

// PostAdministration posts an administration payload to one of the fixed
// endpoints. Any status below 400 is returned to the caller together with
// the trimmed body, which carries the new identifier on 201.
func (c *Client) PostAdministration(ctx context.Context, endpoint string, payload any) (int, string, error) {
	switch endpoint {
	case EndpointAdministerRequest, EndpointWithdrawOwnRequest,
		EndpointAdministerCertificate, EndpointSelfAdministerCertificate, EndpointWithdrawOwnCertificate:
	default:
		return 0, "", fmt.Errorf("unknown administration endpoint %q", endpoint)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("failed to marshal administration data: %w", err)
	}

	resp, err := c.processRequest(ctx, http.MethodPost, endpoint, data, nil)
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode, trimID(resp.Body), nil
}

// trimID strips whitespace and JSON string quotes around an identifier body
func trimID(body []byte) string {
	return strings.Trim(strings.TrimSpace(string(body)), `"`)
}
