package policege

import (
	"policevideos/lib/restyutil"
	"policevideos/lib/telemetry"
)

const (
	report_client_is_authenticated = "client.is-authenticated"
	report_client_authenticate     = "client.authenticate"
	report_client_protocols        = "client.protocols"
	report_client_media            = "client.media"
	report_rows_status             = "rows.status"
	report_scraper_protocols       = "scraper.protocols"
)

var tracer = telemetry.Tracer("policevideos.lib.scrapers.policege")

var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput makes every client created afterwards dump its
// http exchanges into out (while debug logging is enabled).
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
