// Package budget provides the types and storage for a personal-finance
// tracker. It is local-first: every record lives in human-readable,
// version-controllable files (or a SQL database), and nothing leaves the
// machine except exchange rate lookups.
//
// The core functionalities include:
//   - Record Storage: a generic Store keeps records of one kind (expenses,
//     earnings, accounts, assets, debts, ...) with stable ids and GUIDs,
//     tracks changes, and persists them through a Backend.
//   - Money: an exact decimal amount, kept to the cent, with a locale
//     tolerant parser and currency aware formatting.
//   - Currency Rates: a cache of exchange rates, filled on demand from a
//     RateFetcher, where concurrent lookups share a single fetch.
//   - Application Context: Budget opens every store at startup and flushes
//     them at shutdown.
//
// This package serves as the foundation of the `bw` command-line tool and
// of its HTTP API.
package budget
