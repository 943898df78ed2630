package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"policevideos/lib/protocolstore"
	"policevideos/lib/scrapers/policege"
	"policevideos/lib/timezone"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testProtocols = []policege.Protocol{
	{
		Number:        "GA/1234567",
		CarNumber:     "AA-123-BB",
		Date:          timezone.Date(2024, time.March, 5),
		ViolationCode: "125",
		Amount:        1550,
		Status:        policege.StatusUnpaid,
		Media: []policege.Media{
			{Kind: policege.MediaPNG, Blob: []byte("photo")},
			{Kind: policege.MediaOGG, Blob: []byte("audio")},
		},
	},
	{
		Number:        "GA7654321",
		CarNumber:     "AA-123-BB",
		Date:          timezone.Date(2023, time.November, 17),
		ViolationCode: "123",
		Amount:        4000,
		Status:        policege.StatusPaidOnTime,
	},
}

func TestWriteMedia(t *testing.T) {
	dir := t.TempDir()
	err := writeMedia(dir, testProtocols)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.ElementsMatch(t, []string{"GA_1234567_0.png", "GA_1234567_1.ogg"}, names)

	contents, err := os.ReadFile(filepath.Join(dir, "GA_1234567_1.ogg"))
	require.NoError(t, err)
	require.Equal(t, "audio", string(contents))
}

func TestProtocolTable(t *testing.T) {
	tbl := protocolTable(protocolstore.Snapshot{
		RunId:     "run-1",
		Time:      timezone.Date(2024, time.April, 1),
		Protocols: testProtocols,
	})
	tbl.SetOutputMirror(nil)
	rendered := tbl.Render()

	require.Contains(t, rendered, "run-1")
	require.Contains(t, rendered, "2024-03-05")
	require.Contains(t, rendered, "15.50")
	require.Contains(t, rendered, "UNPAID")
	require.True(t, strings.Contains(rendered, "PAID_ON_TIME"))
	// only the unpaid protocol is outstanding
	require.Contains(t, rendered, "OUTSTANDING")
}

func TestExecuteContextReturnsError(t *testing.T) {
	rootCmd.SetArgs([]string{"no-such-command"})
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := ExecuteContext(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown command")
}
