// Package wire implements the flinderax_backend binary payloads served on
// /card/get_all_cards and /card/history. The messages are plain proto3
// (package flinderax_backend, see the client decoder), encoded with the
// protobuf wire primitives so the payloads stay byte-compatible with
// existing clients.
package wire

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Card mirrors message Card: field numbers are part of the wire contract.
type Card struct {
	CardID             string  // 1
	CardName           string  // 2
	CardBank           string  // 3
	CardPrimaryColor   int32   // 4
	CardSecondaryColor int32   // 5
	LastTotalDue       float32 // 6
	LastDelta          float32 // 7
}

// CardList mirrors message CardList { repeated Card cards = 1; }.
type CardList struct {
	Cards []Card
}

// CardTransactionHistory mirrors message CardTransactionHistory.
type CardTransactionHistory struct {
	TransactionID    string  // 1
	TotalDueInput    float32 // 2
	TimestampSeconds int64   // 3
	TimestampNanos   int32   // 4
}

// CardHistoryList mirrors message CardHistoryList { repeated CardTransactionHistory histories = 1; }.
type CardHistoryList struct {
	Histories []CardTransactionHistory
}

func appendCard(b []byte, c Card) []byte {
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, c.CardID)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendString(b, c.CardName)
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendString(b, c.CardBank)
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(uint32(c.CardPrimaryColor)))
	b = protowire.AppendTag(b, 5, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(uint32(c.CardSecondaryColor)))
	// Fields 6 and 7 are optional in the schema but the running state always
	// exists server-side, so they are emitted unconditionally.
	b = protowire.AppendTag(b, 6, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, math.Float32bits(c.LastTotalDue))
	b = protowire.AppendTag(b, 7, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, math.Float32bits(c.LastDelta))
	return b
}

// Marshal encodes the list as a flinderax_backend.CardList payload.
func (l *CardList) Marshal() []byte {
	var b []byte
	for _, c := range l.Cards {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, appendCard(nil, c))
	}
	return b
}

func appendHistory(b []byte, h CardTransactionHistory) []byte {
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, h.TransactionID)
	b = protowire.AppendTag(b, 2, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, math.Float32bits(h.TotalDueInput))
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(h.TimestampSeconds))
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(uint32(h.TimestampNanos)))
	return b
}

// Marshal encodes the list as a flinderax_backend.CardHistoryList payload.
func (l *CardHistoryList) Marshal() []byte {
	var b []byte
	for _, h := range l.Histories {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, appendHistory(nil, h))
	}
	return b
}

func parseCard(b []byte) (Card, error) {
	var c Card
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return c, protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return c, protowire.ParseError(n)
			}
			c.CardID, b = v, b[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return c, protowire.ParseError(n)
			}
			c.CardName, b = v, b[n:]
		case num == 3 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return c, protowire.ParseError(n)
			}
			c.CardBank, b = v, b[n:]
		case num == 4 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return c, protowire.ParseError(n)
			}
			c.CardPrimaryColor, b = int32(v), b[n:]
		case num == 5 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return c, protowire.ParseError(n)
			}
			c.CardSecondaryColor, b = int32(v), b[n:]
		case num == 6 && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return c, protowire.ParseError(n)
			}
			c.LastTotalDue, b = math.Float32frombits(v), b[n:]
		case num == 7 && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return c, protowire.ParseError(n)
			}
			c.LastDelta, b = math.Float32frombits(v), b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return c, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return c, nil
}

// UnmarshalCardList decodes a CardList payload.
func UnmarshalCardList(b []byte) (*CardList, error) {
	l := &CardList{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		if num != 1 || typ != protowire.BytesType {
			return nil, fmt.Errorf("unexpected field %d in CardList", num)
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		c, err := parseCard(v)
		if err != nil {
			return nil, err
		}
		l.Cards = append(l.Cards, c)
	}
	return l, nil
}

func parseHistory(b []byte) (CardTransactionHistory, error) {
	var h CardTransactionHistory
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return h, protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return h, protowire.ParseError(n)
			}
			h.TransactionID, b = v, b[n:]
		case num == 2 && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return h, protowire.ParseError(n)
			}
			h.TotalDueInput, b = math.Float32frombits(v), b[n:]
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return h, protowire.ParseError(n)
			}
			h.TimestampSeconds, b = int64(v), b[n:]
		case num == 4 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return h, protowire.ParseError(n)
			}
			h.TimestampNanos, b = int32(v), b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return h, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return h, nil
}

// UnmarshalCardHistoryList decodes a CardHistoryList payload.
func UnmarshalCardHistoryList(b []byte) (*CardHistoryList, error) {
	l := &CardHistoryList{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		if num != 1 || typ != protowire.BytesType {
			return nil, fmt.Errorf("unexpected field %d in CardHistoryList", num)
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		h, err := parseHistory(v)
		if err != nil {
			return nil, err
		}
		l.Histories = append(l.Histories, h)
	}
	return l, nil
}
