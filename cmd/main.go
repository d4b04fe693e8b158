// Package main provides the entry point for the radrate CLI.
//
// radrate serves a rating workflow for model-generated radiology reports:
// an admin uploads a dataset CSV, radiologists score each model response and
// export their ratings as CSV.
//
// Usage:
//
//	radrate serve
//	radrate import reports.csv
//	radrate export <user-id> -o ./out
//
// See --help for all available options.
package main

func main() {
	Execute()
}
