package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Two consecutive guards with the same return can be merged with ||.
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	// Nested loops are worth a second look.
	m.Match(`for $*_ { for $*_ { $*_ } }`).
		Report(`nested for-loop; consider extracting inner loop logic or reducing algorithmic complexity`)
}

// gateway holds the project-specific rules.
func gateway(m dsl.Matcher) {
	// Model and gateway calls need a timeout; the default client has none.
	m.Match(`http.DefaultClient`, `http.Get($*_)`, `http.Post($*_)`).
		Where(!m.File().Name.Matches(`_test\.go$`)).
		Report(`use an *http.Client with a Timeout instead of the default client`)

	// Configuration is read once by internal/infra/config.
	m.Match(`os.Getenv($_)`, `os.LookupEnv($_)`).
		Where(!m.File().PkgPath.Matches(`internal/infra/config$`) && !m.File().Name.Matches(`_test\.go$`)).
		Report(`read configuration through config.Config, not the environment`)

	// Library packages log through slog.
	m.Match(`fmt.Println($*_)`, `fmt.Printf($*_)`, `log.Printf($*_)`, `log.Println($*_)`).
		Where(m.File().PkgPath.Matches(`/internal/`)).
		Report(`log with log/slog in internal packages`)

	// Domain and infra code returns errors.
	m.Match(`panic($_)`).
		Where(m.File().PkgPath.Matches(`/internal/(domain|infra)/`) && !m.File().Name.Matches(`_test\.go$`)).
		Report(`return an error instead of panicking in domain or infra code`)
}
