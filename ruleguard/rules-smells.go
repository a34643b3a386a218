// Package gorules holds the ruleguard checks run by gocritic in CI.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Two guards in a row with the same return can be merged:
	//   if a { return err }
	//   if b { return err }
	// => if a || b { return err }
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	// Same shape with continue, inside loops.
	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	// Nested loops are not always wrong, but worth a second look.
	m.Match(`for $*_ { for $*_ { $*_ } }`).
		Report(`nested for-loop; consider extracting inner loop logic or reducing algorithmic complexity`)
}

// waits keeps every production wait cancellable. Retry delays go through
// llm.SleepContext or an injected llm.Sleeper so tests never block on a clock.
func waits(m dsl.Matcher) {
	m.Match(`time.Sleep($d)`).
		Where(!m.File().Name.Matches(`_test\.go$`)).
		Report(`time.Sleep ignores cancellation; use llm.SleepContext(ctx, $d) or an injected Sleeper`)

	m.Match(`<-time.After($d)`).
		Where(!m.File().Name.Matches(`_test\.go$`)).
		Report(`time.After in a wait cannot be stopped; use a time.NewTimer with Stop, or llm.SleepContext`)
}

// clients keeps provider calls on the configured client, which carries the
// per-provider timeout.
func clients(m dsl.Matcher) {
	m.Match(`http.DefaultClient`, `http.Get($*_)`, `http.Post($*_)`).
		Where(!m.File().Name.Matches(`_test\.go$`)).
		Report(`provider calls must use the injected *http.Client with a timeout`)
}
