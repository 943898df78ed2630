package policege

import (
	"context"
	"errors"
	"fmt"
	"policevideos/internal/assert"
	"policevideos/lib/anticaptcha"
	"policevideos/lib/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrAuthenticationFailed = errors.New("unable to authenticate, check logs for details")

type Config struct {
	BaseUrl           string  `json:"base_url"`
	SessionId         string  `json:"session_id"`
	DocumentNumber    string  `json:"document_number"`
	VehicleNumber     string  `json:"vehicle_number"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	MediaConcurrency  int     `json:"media_concurrency"`
}

type Scraper struct {
	client *Client
	tel    telemetry.API
}

// NewScraper returns a scraper with a working session. The session in cfg
// is reused if the portal still accepts it, otherwise a new one is
// negotiated and written back into cfg.SessionId.
func NewScraper(ctx context.Context, cfg *Config, solver anticaptcha.Solver, tel telemetry.API) (*Scraper, error) {
	assert.NotNil(cfg)
	assert.NotNil(solver)
	assert.NotNil(tel)

	ctx, span := tracer.Start(ctx, "NewScraper")
	defer span.End()

	client, err := NewClient(ClientOptions{
		BaseUrl:           cfg.BaseUrl,
		RequestsPerSecond: cfg.RequestsPerSecond,
		MediaConcurrency:  cfg.MediaConcurrency,
	}, tel)
	if err != nil {
		return nil, err
	}
	if cfg.SessionId != "" {
		client.SetSessionId(cfg.SessionId)
	}

	authenticated, err := client.IsAuthenticated(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "probe session")
		return nil, fmt.Errorf("probe session: %w", err)
	}
	span.SetAttributes(attribute.Bool("session_reused", authenticated))

	if !authenticated {
		sessionId, err := client.Authenticate(ctx, Credentials{
			DocumentNumber: cfg.DocumentNumber,
			VehicleNumber:  cfg.VehicleNumber,
		}, solver)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "authenticate")
			if isAuthenticationFailure(err) {
				return nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
			}
			return nil, err
		}
		cfg.SessionId = sessionId
	}

	return &Scraper{
		client: client,
		tel:    client.tel,
	}, nil
}

// isAuthenticationFailure is true for errors caused by the login being
// refused, as opposed to the portal being unreachable or unrecognizable.
func isAuthenticationFailure(err error) bool {
	var rejected *RejectedError
	return errors.As(err, &rejected) ||
		errors.Is(err, ErrCaptchaUnsolved) ||
		errors.Is(err, ErrCaptchaOracle) ||
		errors.Is(err, ErrNoSession)
}

func (s *Scraper) Client() *Client {
	return s.client
}

// Protocols returns every protocol of the account in listing order, along
// with the media of each protocol that links to a detail page.
func (s *Scraper) Protocols(ctx context.Context) ([]Protocol, error) {
	ctx, span := tracer.Start(ctx, "scraper:Protocols")
	defer span.End()

	rows, err := s.client.Protocols(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list protocols")
		return nil, err
	}

	protocols := make([]Protocol, len(rows))
	for i, row := range rows {
		protocol := row.Protocol
		if row.Detail != nil {
			media, err := s.client.Media(ctx, row.Detail.Href)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "fetch media")
				return nil, fmt.Errorf("protocol %s/%s: %w", protocol.CarNumber, protocol.Number, err)
			}
			protocol.Media = media
		}
		protocols[i] = protocol
	}

	s.tel.ReportCount(report_scraper_protocols, int64(len(protocols)))
	return protocols, nil
}
