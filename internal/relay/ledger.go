package relay

import "errors"

// reactionSet holds the reactions of one message. symbols keeps first-use
// order so snapshots are stable.
type reactionSet struct {
	symbols []string
	holders map[string][]string
}

// Ledger tracks, per message, which connections hold which reaction. A
// connection holds at most one reaction per message. Like Registry it is
// owned by the relay loop.
//
// Entries of departed connections are kept until the message's reactions
// next change.
type Ledger struct {
	messages map[string]*reactionSet
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{messages: make(map[string]*reactionSet)}
}

// Apply adds or removes connID's reaction on messageID. Adding a reaction
// first withdraws any other reaction connID holds on the same message.
func (l *Ledger) Apply(connID, messageID, symbol string, remove bool) error {
	if messageID == "" || symbol == "" {
		return errors.New("reaction needs a message id and a symbol")
	}

	set, ok := l.messages[messageID]
	if remove {
		if ok {
			set.withdraw(symbol, connID)
		}
		return nil
	}
	if !ok {
		set = &reactionSet{holders: make(map[string][]string)}
		l.messages[messageID] = set
	}

	for _, s := range set.symbols {
		set.withdraw(s, connID)
	}
	if _, seen := set.holders[symbol]; !seen {
		set.symbols = append(set.symbols, symbol)
	}
	set.holders[symbol] = append(set.holders[symbol], connID)
	return nil
}

func (s *reactionSet) withdraw(symbol, connID string) {
	ids, ok := s.holders[symbol]
	if !ok {
		return
	}
	kept := ids[:0]
	for _, id := range ids {
		if id != connID {
			kept = append(kept, id)
		}
	}
	s.holders[symbol] = kept
}

// Snapshot returns symbol → holder ids for messageID. Symbols whose holders
// all withdrew map to an empty slice. The result is a copy and never nil.
func (l *Ledger) Snapshot(messageID string) map[string][]string {
	out := make(map[string][]string)
	set, ok := l.messages[messageID]
	if !ok {
		return out
	}
	for _, symbol := range set.symbols {
		ids := set.holders[symbol]
		cp := make([]string, len(ids))
		copy(cp, ids)
		out[symbol] = cp
	}
	return out
}
