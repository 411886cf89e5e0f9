// Package marketbot provides pattern-matching and session-correlation
// machinery for a market-data chat bot.
//
// The core code is in packages 'match' and 'session', and the
// command-line tools are in 'cmd'.
package marketbot
