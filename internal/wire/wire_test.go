package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCardListRoundtrip(t *testing.T) {
	t.Run("empty list is an empty payload", func(t *testing.T) {
		payload := (&CardList{}).Marshal()
		assert.Empty(t, payload)

		list, err := UnmarshalCardList(payload)
		assert.NoError(t, err)
		assert.Empty(t, list.Cards)
	})

	t.Run("cards keep their order and values", func(t *testing.T) {
		in := &CardList{Cards: []Card{
			{
				CardID:             "card1",
				CardName:           "Visa",
				CardBank:           "Chase",
				CardPrimaryColor:   0xFF0000,
				CardSecondaryColor: 0x0000FF,
				LastTotalDue:       120.5,
				LastDelta:          -20.25,
			},
			{CardID: "card2", CardName: "Amex", CardBank: "BofA"},
		}}

		out, err := UnmarshalCardList(in.Marshal())
		assert.NoError(t, err)
		assert.Equal(t, in.Cards, out.Cards)
	})

	t.Run("zero running state is still present on the wire", func(t *testing.T) {
		payload := (&CardList{Cards: []Card{{CardID: "card1"}}}).Marshal()

		out, err := UnmarshalCardList(payload)
		assert.NoError(t, err)
		assert.Equal(t, float32(0), out.Cards[0].LastTotalDue)
		assert.Equal(t, float32(0), out.Cards[0].LastDelta)
	})
}

func TestCardHistoryListRoundtrip(t *testing.T) {
	in := &CardHistoryList{Histories: []CardTransactionHistory{
		{TransactionID: "tx2", TotalDueInput: 150, TimestampSeconds: 1767321845, TimestampNanos: 500},
		{TransactionID: "tx1", TotalDueInput: 100, TimestampSeconds: 1767235200},
	}}

	out, err := UnmarshalCardHistoryList(in.Marshal())
	assert.NoError(t, err)
	assert.Equal(t, in.Histories, out.Histories)
}

func TestParseEventTimestamp(t *testing.T) {
	t.Run("rfc3339", func(t *testing.T) {
		got := ParseEventTimestamp("2026-01-02T03:04:05Z")
		assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), got)
	})

	t.Run("sql timestamp", func(t *testing.T) {
		got := ParseEventTimestamp("2026-01-02 03:04:05")
		assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), got)
	})

	t.Run("garbage degrades to epoch zero", func(t *testing.T) {
		got := ParseEventTimestamp("not-a-time")
		assert.Equal(t, time.Unix(0, 0).UTC(), got)
	})
}

func TestSplitTimestamp(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 123456789, time.UTC)
	seconds, nanos := SplitTimestamp(ts)
	assert.Equal(t, ts.Unix(), seconds)
	assert.Equal(t, int32(123456789), nanos)
}
