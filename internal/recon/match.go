package recon

import (
	"sort"
)

// Match pairs a bank row with the book row recording the same movement.
type Match struct {
	BankID string `json:"bank_id"`
	BookID string `json:"book_id"`
	Days   int    `json:"days"`
}

// SuggestMatches pairs bank credits with book debits and bank debits with
// book credits of the same amount dated at most maxDays apart. Each row is
// used once; closer dates win, ties go to the earlier row in the feed.
func SuggestMatches(bankFeed, bookFeed []Transaction, maxDays int) []Match {
	type candidate struct {
		bank, book int
		days       int
	}

	var cands []candidate
	for i, b := range bankFeed {
		for j, k := range bookFeed {
			mirrored := (b.Credit.IsPositive() && k.Debit.IsPositive() && b.Credit.Equal(k.Debit)) ||
				(b.Debit.IsPositive() && k.Credit.IsPositive() && b.Debit.Equal(k.Credit))
			if !mirrored {
				continue
			}
			days := dayDiff(b, k)
			if days > maxDays {
				continue
			}
			cands = append(cands, candidate{bank: i, book: j, days: days})
		}
	}

	sort.SliceStable(cands, func(a, b int) bool {
		if cands[a].days != cands[b].days {
			return cands[a].days < cands[b].days
		}
		if cands[a].bank != cands[b].bank {
			return cands[a].bank < cands[b].bank
		}
		return cands[a].book < cands[b].book
	})

	usedBank := make(map[int]bool)
	usedBook := make(map[int]bool)
	var out []Match
	for _, c := range cands {
		if usedBank[c.bank] || usedBook[c.book] {
			continue
		}
		usedBank[c.bank] = true
		usedBook[c.book] = true
		out = append(out, Match{BankID: bankFeed[c.bank].ID, BookID: bookFeed[c.book].ID, Days: c.days})
	}

	sort.SliceStable(out, func(a, b int) bool {
		return indexOf(bankFeed, out[a].BankID) < indexOf(bankFeed, out[b].BankID)
	})
	return out
}

func dayDiff(a, b Transaction) int {
	d := int(a.Date.Sub(b.Date).Hours() / 24)
	if d < 0 {
		d = -d
	}
	return d
}

func indexOf(feed []Transaction, id string) int {
	for i, t := range feed {
		if t.ID == id {
			return i
		}
	}
	return len(feed)
}
