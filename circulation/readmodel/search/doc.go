// Package search is the lookup index behind the autocomplete boxes: case-insensitive substring
// matching over book titles, authors and ISBNs, and over student names and ids.
package search
