package restyutil

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type InstrumentOutput interface {
	Write(id string, contents string)
}

// InstrumentClient dumps every http exchange of client into output while
// debug logging is enabled, `name` prefixes the file names. if output is nil
// this is a no-op.
func InstrumentClient(client *resty.Client, name string, output InstrumentOutput) {
	if output == nil {
		return
	}

	var idcounter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		ctx := res.Request.Context()
		if !slog.Default().Enabled(ctx, slog.LevelDebug) {
			return nil
		}

		messageId := fmt.Sprintf("%s-%s", name, strconv.FormatUint(atomic.AddUint64(&idcounter, 1), 10))
		output.Write(messageId, formatHttpMessage(res))
		slog.DebugContext(
			ctx, "wrote http message",
			"method", res.Request.Method,
			"url", res.Request.URL,
			"message_id", messageId,
		)
		return nil
	})
}
