package ledger

import "fmt"

// SeedBalance sets the balance of code on an in-memory ledger without booking
// an entry, offsetting the difference against the clearing account. Tests use
// it to fund accounts; any other ledger panics.
func SeedBalance(l Ledger, code string, amount int64) {
	mem, ok := l.(*inMemoryLedger)
	if !ok {
		panic(fmt.Sprintf("ledger: SeedBalance needs the in-memory ledger, got %T", l))
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	mem.balances[ExternalAccountCode] += mem.balances[code] - amount
	mem.balances[code] = amount
}
