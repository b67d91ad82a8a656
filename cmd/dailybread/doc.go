// Command dailybread generates daily devotional and affirmation content.
//
// `dailybread generate day 2026-02-01` fills one day; `dailybread generate
// month 2026-02` fills every day of a month. Both are safe to re-run: only
// missing fields are generated. `status` and `ledger` inspect the content
// database without calling any provider.
package main
