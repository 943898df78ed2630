package policege

import (
	"context"
	"errors"
	"os"
	"policevideos/lib/anticaptcha"
	"policevideos/lib/telemetry"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t testing.TB, portal *fakePortal, concurrency int) (*Client, *telemetry.Recorder) {
	rec := &telemetry.Recorder{}
	client, err := NewClient(ClientOptions{
		BaseUrl:           portal.URL() + "/",
		RequestsPerSecond: 1000,
		MediaConcurrency:  concurrency,
	}, rec)
	require.NoError(t, err)
	return client, rec
}

// answeringSolver checks that it received the portal's captcha image and
// answers with text.
func answeringSolver(t testing.TB, text string, calls *atomic.Int64) anticaptcha.Solver {
	return anticaptcha.SolverFunc(func(ctx context.Context, imagePath string) anticaptcha.Result {
		calls.Add(1)
		contents, err := os.ReadFile(imagePath)
		require.NoError(t, err)
		require.Equal(t, captchaImage, contents)
		return anticaptcha.Solved(text)
	})
}

func TestNewClientBaseUrl(t *testing.T) {
	_, err := NewClient(ClientOptions{BaseUrl: "videos.police.ge"}, &telemetry.Recorder{})
	require.Error(t, err)

	client, err := NewClient(ClientOptions{BaseUrl: "https://videos.police.ge/"}, &telemetry.Recorder{})
	require.NoError(t, err)
	require.Equal(t, "https://videos.police.ge/protocols.php", client.url("protocols.php"))
	require.Equal(t, "https://videos.police.ge/protocol.php?id=1", client.url("/protocol.php?id=1"))
	require.Equal(t, "https://cdn.example.test/a.png", client.url("https://cdn.example.test/a.png"))
	require.Equal(t, "https://videos.police.ge", client.url(""))
	require.Equal(t, "https://videos.police.ge", client.origin())
}

func TestIsAuthenticated(t *testing.T) {
	portal := newFakePortal(t)
	client, _ := newTestClient(t, portal, 1)
	ctx := context.Background()

	ok, err := client.IsAuthenticated(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	client.SetSessionId("expired")
	ok, err = client.IsAuthenticated(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, "expired", client.SessionId())

	session := portal.authenticatedSession()
	client.SetSessionId(session)
	for range 2 {
		ok, err = client.IsAuthenticated(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, session, client.SessionId())
	}

	require.Zero(t, portal.submits.Load())
}

func TestIsAuthenticatedUnreachable(t *testing.T) {
	portal := newFakePortal(t)
	client, rec := newTestClient(t, portal, 1)
	portal.server.Close()

	_, err := client.IsAuthenticated(context.Background())
	require.Error(t, err)
	require.NotEmpty(t, rec.Broken(report_client_is_authenticated))
}

func TestAuthenticate(t *testing.T) {
	portal := newFakePortal(t)
	client, _ := newTestClient(t, portal, 1)
	ctx := context.Background()

	var imagePath string
	var calls atomic.Int64
	solver := answeringSolver(t, testCaptchaAnswer, &calls)
	recordPath := anticaptcha.SolverFunc(func(ctx context.Context, path string) anticaptcha.Result {
		imagePath = path
		return solver.Solve(ctx, path)
	})

	session, err := client.Authenticate(ctx, Credentials{
		DocumentNumber: testDocumentNumber,
		VehicleNumber:  testVehicleNumber,
	}, recordPath)
	require.NoError(t, err)
	require.NotEmpty(t, session)
	require.Equal(t, session, client.SessionId())
	require.True(t, portal.isAuthenticated(session))
	require.Equal(t, int64(1), calls.Load())

	_, err = os.Stat(imagePath)
	require.True(t, errors.Is(err, os.ErrNotExist), "captcha image should be removed")

	ok, err := client.IsAuthenticated(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAuthenticateRejected(t *testing.T) {
	portal := newFakePortal(t)
	client, rec := newTestClient(t, portal, 1)
	client.SetSessionId("previous")

	var calls atomic.Int64
	_, err := client.Authenticate(context.Background(), Credentials{
		DocumentNumber: testDocumentNumber,
		VehicleNumber:  testVehicleNumber,
	}, answeringSolver(t, "wrong", &calls))

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, "უსაფრთხოების კოდი არასწორია", rejected.Reason)
	require.Equal(t, "previous", client.SessionId())
	require.Equal(t, int64(1), portal.submits.Load())
	require.Len(t, rec.Warnings(report_client_authenticate), 1)
}

func TestAuthenticateWrongCredentials(t *testing.T) {
	portal := newFakePortal(t)
	client, _ := newTestClient(t, portal, 1)

	var calls atomic.Int64
	_, err := client.Authenticate(context.Background(), Credentials{
		DocumentNumber: "XX0000000",
		VehicleNumber:  testVehicleNumber,
	}, answeringSolver(t, testCaptchaAnswer, &calls))

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	require.Empty(t, client.SessionId())
}

func TestAuthenticateCaptchaOutcomes(t *testing.T) {
	testCases := []struct {
		name     string
		result   anticaptcha.Result
		expected error
	}{
		{
			name:     "unsolved",
			result:   anticaptcha.Unsolved(anticaptcha.ErrTimeout),
			expected: ErrCaptchaUnsolved,
		},
		{
			name:     "failed",
			result:   anticaptcha.Failed(errors.New("ERROR_ZERO_BALANCE")),
			expected: ErrCaptchaOracle,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			portal := newFakePortal(t)
			client, _ := newTestClient(t, portal, 1)
			session := portal.authenticatedSession()
			client.SetSessionId(session)

			_, err := client.Authenticate(context.Background(), Credentials{
				DocumentNumber: testDocumentNumber,
				VehicleNumber:  testVehicleNumber,
			}, anticaptcha.SolverFunc(func(context.Context, string) anticaptcha.Result {
				return test.result
			}))
			require.ErrorIs(t, err, test.expected)
			require.ErrorIs(t, err, test.result.Err)
			require.Zero(t, portal.submits.Load())
			require.Equal(t, session, client.SessionId())
		})
	}
}

func TestAuthenticateSchemaMismatch(t *testing.T) {
	portal := newFakePortal(t)
	client, rec := newTestClient(t, portal, 1)
	portal.login = `<html><body><form></form></body></html>`

	var calls atomic.Int64
	_, err := client.Authenticate(context.Background(), Credentials{}, answeringSolver(t, testCaptchaAnswer, &calls))
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, "captcha image", schemaErr.Element)
	require.Zero(t, calls.Load())
	require.NotEmpty(t, rec.Broken(report_client_authenticate))
}

func TestMedia(t *testing.T) {
	for _, concurrency := range []int{1, 3} {
		portal := newFakePortal(t)
		client, _ := newTestClient(t, portal, concurrency)
		client.SetSessionId(portal.authenticatedSession())

		media, err := client.Media(context.Background(), "protocol.php?id=GA1234567")
		require.NoError(t, err)
		require.Equal(t, []Media{
			{Kind: MediaPNG, Blob: mediaBlob("/photos/GA1234567_1.png")},
			{Kind: MediaOGG, Blob: mediaBlob("/oggvideo-GA1234567.ogg")},
			{Kind: MediaPNG, Blob: mediaBlob("/photos/GA1234567_2.png")},
		}, media, "concurrency %d", concurrency)
		require.Len(t, portal.fetchedMedia(), 3)
	}
}

func TestMediaMissingFile(t *testing.T) {
	portal := newFakePortal(t)
	portal.missing["/oggvideo-GA1234567.ogg"] = true
	client, rec := newTestClient(t, portal, 2)
	client.SetSessionId(portal.authenticatedSession())

	_, err := client.Media(context.Background(), "protocol.php?id=GA1234567")
	require.ErrorContains(t, err, "404")
	require.NotEmpty(t, rec.Broken(report_client_media))
}
