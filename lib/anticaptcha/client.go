package anticaptcha

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"policevideos/internal/assert"
	"policevideos/lib/telemetry"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_create_task = "client.create-task"
	report_client_task_result = "client.task-result"
)

const (
	defaultBaseUrl      = "https://api.anti-captcha.com"
	defaultTimeout      = 2 * time.Minute
	defaultPollInterval = 3 * time.Second
)

// error codes that mean the image itself could not be solved
var unsolvedCodes = map[string]bool{
	"ERROR_CAPTCHA_UNSOLVABLE": true,
	"ERROR_NO_SLOT_AVAILABLE":  true,
}

var ErrTimeout = errors.New("anticaptcha: task was not ready in time")

type Options struct {
	BaseUrl        string `json:"base_url"`
	Key            string `json:"key"`
	SoftId         int    `json:"soft_id"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	// defaults to 3 seconds, only overridden in tests
	PollInterval time.Duration `json:"-"`
}

type Client struct {
	http         *resty.Client
	key          string
	softId       int
	timeout      time.Duration
	pollInterval time.Duration
	tel          telemetry.API
}

func NewClient(opts Options, tel telemetry.API) *Client {
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.Key)

	tel = telemetry.NewScopedAPI("anticaptcha", tel)

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = defaultBaseUrl
	}
	timeout := time.Duration(opts.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl)
	httpClient.SetTimeout(time.Second * 30)
	httpClient.SetHeader("Content-Type", "application/json")
	telemetry.InstrumentResty(httpClient, tel, "anticaptcha/http")

	return &Client{
		http:         httpClient,
		key:          opts.Key,
		softId:       opts.SoftId,
		timeout:      timeout,
		pollInterval: pollInterval,
		tel:          tel,
	}
}

type apiError struct {
	ErrorId          int    `json:"errorId"`
	ErrorCode        string `json:"errorCode"`
	ErrorDescription string `json:"errorDescription"`
}

func (e apiError) Error() string {
	return fmt.Sprintf("anticaptcha: %s: %s", e.ErrorCode, e.ErrorDescription)
}

type imageToTextTask struct {
	Type string `json:"type"`
	Body string `json:"body"`
	Case bool   `json:"case"`
}

type createTaskRequest struct {
	ClientKey string          `json:"clientKey"`
	SoftId    int             `json:"softId,omitempty"`
	Task      imageToTextTask `json:"task"`
}

type createTaskResponse struct {
	apiError
	TaskId int64 `json:"taskId"`
}

type taskResultRequest struct {
	ClientKey string `json:"clientKey"`
	TaskId    int64  `json:"taskId"`
}

type taskResultResponse struct {
	apiError
	Status   string `json:"status"`
	Solution struct {
		Text string `json:"text"`
	} `json:"solution"`
}

func classify(e apiError) Result {
	if unsolvedCodes[e.ErrorCode] {
		return Unsolved(e)
	}
	return Failed(e)
}

// createTask returns ok = false along with the reason when no task was created.
func (c *Client) createTask(ctx context.Context, image []byte) (taskId int64, failure Result, ok bool) {
	var out createTaskResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(createTaskRequest{
			ClientKey: c.key,
			SoftId:    c.softId,
			Task: imageToTextTask{
				Type: "ImageToTextTask",
				Body: base64.StdEncoding.EncodeToString(image),
				Case: false,
			},
		}).
		SetResult(&out).
		Post("/createTask")
	if err != nil {
		c.tel.ReportBroken(report_client_create_task, fmt.Errorf("fetch: %w", err))
		return 0, Failed(err), false
	}
	if res.IsError() {
		err := fmt.Errorf("anticaptcha: createTask returned %s", res.Status())
		c.tel.ReportBroken(report_client_create_task, err)
		return 0, Failed(err), false
	}
	if out.ErrorId != 0 {
		c.tel.ReportWarning(report_client_create_task, out.apiError)
		return 0, classify(out.apiError), false
	}
	return out.TaskId, Result{}, true
}

// getTaskResult returns done = false while the task is still processing.
func (c *Client) getTaskResult(ctx context.Context, taskId int64) (done bool, result Result) {
	var out taskResultResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(taskResultRequest{ClientKey: c.key, TaskId: taskId}).
		SetResult(&out).
		Post("/getTaskResult")
	if err != nil {
		c.tel.ReportBroken(report_client_task_result, fmt.Errorf("fetch: %w", err), taskId)
		return true, Failed(err)
	}
	if res.IsError() {
		err := fmt.Errorf("anticaptcha: getTaskResult returned %s", res.Status())
		c.tel.ReportBroken(report_client_task_result, err, taskId)
		return true, Failed(err)
	}
	if out.ErrorId != 0 {
		c.tel.ReportWarning(report_client_task_result, out.apiError, taskId)
		return true, classify(out.apiError)
	}
	if out.Status != "ready" {
		return false, Result{}
	}
	if out.Solution.Text == "" {
		return true, Unsolved(fmt.Errorf("anticaptcha: task %d is ready but has no text", taskId))
	}
	return true, Solved(out.Solution.Text)
}

func (c *Client) Solve(ctx context.Context, imagePath string) Result {
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return Failed(fmt.Errorf("read captcha image: %w", err))
	}

	taskId, failure, ok := c.createTask(ctx, image)
	if !ok {
		return failure
	}
	c.tel.ReportDebug("task created", taskId)

	pollCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(c.pollInterval), 1)
	// the task is never ready right after creation, skip the initial burst
	limiter.Reserve()

	for {
		err := limiter.Wait(pollCtx)
		if err != nil {
			if ctx.Err() != nil {
				return Failed(ctx.Err())
			}
			c.tel.ReportWarning(report_client_task_result, ErrTimeout, taskId)
			return Unsolved(ErrTimeout)
		}

		done, result := c.getTaskResult(pollCtx, taskId)
		if !done {
			continue
		}
		if result.Outcome == OutcomeFailed && pollCtx.Err() != nil && ctx.Err() == nil {
			return Unsolved(ErrTimeout)
		}
		return result
	}
}
