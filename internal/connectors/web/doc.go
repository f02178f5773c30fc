// Package web fetches article pages over HTTP for the HTML normaliser.
package web
