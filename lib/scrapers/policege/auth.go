package policege

import (
	"context"
	"errors"
	"fmt"
	"net/http/cookiejar"
	"os"
	"policevideos/internal/assert"
	"policevideos/lib/anticaptcha"
	"policevideos/lib/textutil"
	"strings"

	"go.opentelemetry.io/otel/codes"
)

var (
	ErrCaptchaUnsolved = errors.New("captcha could not be solved")
	ErrCaptchaOracle   = errors.New("captcha oracle failed")
	ErrNoSession       = errors.New("portal accepted login but set no session cookie")
)

// RejectedError is returned when the portal refuses the submitted login,
// Reason is whatever warning the portal displayed (it may be empty).
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return "portal rejected login"
	}
	return fmt.Sprintf("portal rejected login: %s", e.Reason)
}

type Credentials struct {
	DocumentNumber string
	VehicleNumber  string
}

// Authenticate negotiates a brand new session: it reads the login form,
// solves its captcha with solver and submits the form. On success the new
// session token is returned, on any failure the previous session is kept.
func (c *Client) Authenticate(ctx context.Context, creds Credentials, solver anticaptcha.Solver) (string, error) {
	assert.NotNil(solver)

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := tracer.Start(ctx, "client:Authenticate")
	defer span.End()

	c.tel.ReportDebug("sending authentication request")

	previous := c.Http.GetClient().Jar
	jar, err := cookiejar.New(nil)
	if err != nil {
		return "", err
	}
	c.Http.SetCookieJar(jar)

	sessionId, err := c.authenticate(ctx, creds, solver)
	if err != nil {
		c.Http.SetCookieJar(previous)
		span.RecordError(err)
		span.SetStatus(codes.Error, "authentication failed")
		return "", err
	}

	c.tel.ReportDebug("client authenticated")
	return sessionId, nil
}

func (c *Client) authenticate(ctx context.Context, creds Credentials, solver anticaptcha.Solver) (string, error) {
	doc, _, err := c.document(ctx, "", report_client_authenticate)
	if err != nil {
		return "", err
	}

	captcha, err := c.schema.require(doc.Selection, c.schema.CaptchaImage, "login page")
	if err != nil {
		c.tel.ReportBroken(report_client_authenticate, err)
		return "", err
	}
	captchaSrc := strings.TrimSpace(captcha.First().AttrOr("src", ""))
	if captchaSrc == "" {
		err := c.schema.missing(c.schema.CaptchaImage.Name+" src", "login page")
		c.tel.ReportBroken(report_client_authenticate, err)
		return "", err
	}

	csrfInput, err := c.schema.require(doc.Selection, c.schema.CsrfToken, "login page")
	if err != nil {
		c.tel.ReportBroken(report_client_authenticate, err)
		return "", err
	}
	csrfToken, ok := csrfInput.First().Attr("value")
	if !ok {
		err := c.schema.missing(c.schema.CsrfToken.Name+" value", "login page")
		c.tel.ReportBroken(report_client_authenticate, err)
		return "", err
	}

	imagePath, release, err := c.saveCaptcha(ctx, captchaSrc)
	if err != nil {
		return "", err
	}
	defer release()

	result := solver.Solve(ctx, imagePath)
	switch result.Outcome {
	case anticaptcha.OutcomeSolved:
		c.tel.ReportDebug("captcha solution received", result.Text)
	case anticaptcha.OutcomeUnsolved:
		c.tel.ReportWarning(report_client_authenticate, "could not get captcha solution", result.Err)
		return "", fmt.Errorf("%w: %w", ErrCaptchaUnsolved, result.Err)
	default:
		c.tel.ReportBroken(report_client_authenticate, fmt.Errorf("solve captcha: %w", result.Err))
		return "", fmt.Errorf("%w: %w", ErrCaptchaOracle, result.Err)
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
			"Origin":       c.origin(),
			"Referer":      c.url(landingPage),
			"User-Agent":   browserUserAgent,
		}).
		SetFormData(map[string]string{
			"protocolNo":   "",
			"personalNo":   "",
			"documentNo":   creds.DocumentNumber,
			"vehicleNo2":   creds.VehicleNumber,
			"captcha_code": result.Text,
			"lang":         "ge",
			"csrf_token":   csrfToken,
		}).
		Post(c.url(submitPage))
	if err != nil {
		c.tel.ReportBroken(report_client_authenticate, fmt.Errorf("submit login: %w", err))
		return "", fmt.Errorf("submit login: %w", err)
	}

	if strings.Contains(finalUrl(res), listingPage) {
		sessionId := c.sessionId()
		if sessionId == "" {
			c.tel.ReportBroken(report_client_authenticate, ErrNoSession)
			return "", ErrNoSession
		}
		return sessionId, nil
	}

	rejected := &RejectedError{}
	page, err := parseDocument(res.Body())
	if err == nil {
		warning := c.schema.LoginWarning.Find(page.Selection).First()
		rejected.Reason = textutil.NormalizeSpace(warning.Text())
	}
	c.tel.ReportWarning(report_client_authenticate, "unable to authenticate client", rejected.Reason)
	return "", rejected
}

// saveCaptcha downloads the captcha image into a temporary file, release
// removes it.
func (c *Client) saveCaptcha(ctx context.Context, src string) (path string, release func(), err error) {
	res, err := c.fetch(ctx, src, report_client_authenticate)
	if err != nil {
		return "", nil, err
	}
	file, err := os.CreateTemp("", "policege-captcha-*.png")
	if err != nil {
		return "", nil, err
	}
	release = func() {
		os.Remove(file.Name())
	}

	_, err = file.Write(res.Body())
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		release()
		return "", nil, fmt.Errorf("write captcha image: %w", err)
	}
	return file.Name(), release, nil
}
