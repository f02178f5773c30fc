// Package html provides a Normaliser implementation for web articles.
// It picks the main article body out of a fetched page, dropping
// navigation, boilerplate and scripts, and returns clean readable text.
package html
