package protocolstore

import (
	"context"
	"policevideos/lib/protocolstore/db"
	"policevideos/lib/scrapers/policege"
	"policevideos/lib/testutil"
	"policevideos/lib/timezone"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	res := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "protocolstore",
		DbSchema: db.Schema,
	})
	store := NewStore(res.DB)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	_, err := store.Latest(ctx)
	require.ErrorIs(t, err, ErrNoRuns)

	first := []policege.Protocol{
		{
			Number:        "GA1234567",
			CarNumber:     "AA-123-BB",
			Date:          timezone.Date(2024, time.March, 5),
			ViolationCode: "125 ნაწ. 5",
			Amount:        1550,
			Status:        policege.StatusPaidOnTime,
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
			Status:        policege.StatusUnpaid,
		},
	}
	firstTime := timezone.Date(2024, time.April, 1)
	firstRun, err := store.Push(ctx, PushRequest{Time: firstTime, Protocols: first})
	require.NoError(t, err)
	require.NotEmpty(t, firstRun)

	snapshot, err := store.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, firstRun, snapshot.RunId)
	require.True(t, firstTime.Equal(snapshot.Time))
	diff := cmp.Diff(first, snapshot.Protocols)
	if diff != "" {
		t.Fatal(diff)
	}

	// the same protocols again in a later run are stored again as is
	second := append([]policege.Protocol{{
		Number:        "GB0000042",
		CarNumber:     "ZZ-999-ZZ",
		Date:          timezone.Date(2024, time.February, 1),
		ViolationCode: "125 ნაწ. 1",
		Amount:        1001,
		Status:        policege.StatusUnknown,
	}}, first...)
	secondRun, err := store.Push(ctx, PushRequest{Time: firstTime.Add(time.Hour), Protocols: second})
	require.NoError(t, err)
	require.NotEqual(t, firstRun, secondRun)

	snapshot, err = store.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, secondRun, snapshot.RunId)
	require.Len(t, snapshot.Protocols, 3)
	require.Equal(t, "GB0000042", snapshot.Protocols[0].Number)

	old, err := store.Get(ctx, firstRun)
	require.NoError(t, err)
	require.Len(t, old.Protocols, 2)
}

func TestStorePushRollback(t *testing.T) {
	res := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "protocolstore",
		DbSchema: db.Schema,
	})
	store := NewStore(res.DB)
	ctx := context.Background()

	_, err := store.Push(ctx, PushRequest{
		Time: timezone.Now(),
		Protocols: []policege.Protocol{
			{Number: "GA1", CarNumber: "AA-1-BB", Amount: 100},
			{Number: "GA2", CarNumber: "AA-1-BB", Amount: -1},
		},
	})
	require.Error(t, err)

	_, err = store.Latest(ctx)
	require.ErrorIs(t, err, ErrNoRuns)
}
