// Package errors provides coded, actionable errors for the reactive CLI and
// its configuration loader.
//
// Each error has a code (e.g., "R100") that maps to a category, a short
// message and a longer explanation. Callers add detail, a suggestion and a
// wrapped cause:
//
//	err := errors.New("R100").
//	    WithDetail("No reactive.json found in " + dir).
//	    WithSuggestion("Run 'reactive serve' with --config or create reactive.json")
//
//	errors.PrintError(err)
//	// ERROR R100: Configuration file not found
//	//
//	//   No reactive.json found in /srv/app
//	//
//	//   Hint: Run 'reactive serve' with --config or create reactive.json
package errors
