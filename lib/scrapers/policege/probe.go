package policege

import (
	"context"

	"go.opentelemetry.io/otel/codes"
)

// IsAuthenticated asks the portal for the protocol listing and reports
// whether it was served instead of being redirected to the login page.
// It never changes the session.
func (c *Client) IsAuthenticated(ctx context.Context) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, span := tracer.Start(ctx, "client:IsAuthenticated")
	defer span.End()

	target := c.url(listingPage)
	res, err := c.fetch(ctx, listingPage, report_client_is_authenticated)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "probe request failed")
		return false, err
	}

	if finalUrl(res) != target {
		c.tel.ReportDebug("client is not authenticated", finalUrl(res))
		return false, nil
	}
	c.tel.ReportDebug("client is authenticated")
	return true, nil
}
