package trading

import (
	"fmt"
	"regexp"
	"strings"
)

// QueryKind selects the addressing mode of an entity lookup.
type QueryKind uint8

const (
	QueryByID QueryKind = iota + 1
	QueryBySymbol
	QueryByName
)

// Query addresses one cached instrument either by id, by case-insensitive
// exact symbol, or by case-insensitive name substring. Exactly one mode is
// set; resolution order is id, then symbol, then name.
type Query struct {
	Kind QueryKind
	Term string
}

func QueryID(id string) Query {
	return Query{Kind: QueryByID, Term: id}
}

func QuerySymbol(symbol string) Query {
	return Query{Kind: QueryBySymbol, Term: symbol}
}

func QueryName(name string) Query {
	return Query{Kind: QueryByName, Term: name}
}

func (q Query) String() string {
	switch q.Kind {
	case QueryByID:
		return fmt.Sprintf("id=%s", q.Term)
	case QueryBySymbol:
		return fmt.Sprintf("symbol=%s", q.Term)
	case QueryByName:
		return fmt.Sprintf("name=%s", q.Term)
	default:
		return "invalid query"
	}
}

// Matches reports whether the query selects the given instrument.
func (q Query) Matches(instrument *Instrument) bool {
	switch q.Kind {
	case QueryByID:
		return instrument.ID == q.Term
	case QueryBySymbol:
		return strings.EqualFold(instrument.Symbol, q.Term)
	case QueryByName:
		pattern, err := regexp.Compile("(?i)" + regexp.QuoteMeta(q.Term))
		if err != nil {
			return false
		}
		return pattern.MatchString(instrument.Name)
	default:
		return false
	}
}
